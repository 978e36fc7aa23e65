package ingredients

type Ingredient struct {
	Id       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

func (i Ingredient) Equal(o Ingredient) bool {
	return i == o
}
