package slices

// map each element in sli.
//
// args:
//   - sli : slice of `T`s
//   - mapper : mapping function from T to R
//
// return:
//
//	slice of `R`s.
//	each element indexed `N` is given with `mapper(sli[N])` .
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// Map over sli with mapper.
//
// If mapper causes error, return (nil, error).
//
// Otherwise, return (mapping result, nil).
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		ret[nth] = r
	}
	return ret, nil
}

// convert slice to map.
//
// If keys given with getkey collide, a value coming later takes over previous.
func ToMap[T any, K comparable](sli []T, getkey func(v T) K) map[K]T {
	m := map[K]T{}
	for _, v := range sli {
		m[getkey(v)] = v
	}
	return m
}

// flatten map to slice of its keys.
func KeysOf[T any, K comparable](m map[K]T) []K {
	sli := make([]K, 0, len(m))
	for k := range m {
		sli = append(sli, k)
	}
	return sli
}

// flatten map to slice of its values.
func ValuesOf[T any, K comparable](m map[K]T) []T {
	sli := make([]T, 0, len(m))
	for _, value := range m {
		sli = append(sli, value)
	}
	return sli
}

// filter elements matching with predicator
func Filter[T any](sli []T, predicator func(v T) bool) []T {
	ret := []T{}
	for _, v := range sli {
		if predicator(v) {
			ret = append(ret, v)
		}
	}
	return ret
}

// First finds the first element satisfying predicator.
//
// When no elements satisfy it, returns (zero-value, false).
func First[T any](sli []T, predicator func(v T) bool) (T, bool) {
	for _, v := range sli {
		if predicator(v) {
			return v, true
		}
	}
	return *new(T), false
}

// Contains tests whether sli has item as its element.
func Contains[T comparable](sli []T, item T) bool {
	for _, v := range sli {
		if v == item {
			return true
		}
	}
	return false
}
