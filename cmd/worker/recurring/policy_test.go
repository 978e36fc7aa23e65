package recurring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/savr-app/savr/cmd/worker/recurring"
	"github.com/savr-app/savr/pkg/loop"
)

func TestParsePolicy(t *testing.T) {
	for name, testcase := range map[string]struct {
		when        string
		then        recurring.Policy
		expectError bool
	}{
		"forever means forever": {
			when: "forever",
			then: recurring.Forever(0),
		},
		"forever:3s means forever with cooldown 3 seconds": {
			when: "forever:3s",
			then: recurring.Forever(3 * time.Second),
		},
		"forever:someday can not be parsed (someday is not time.Duration)": {
			when:        "forever:someday",
			expectError: true,
		},
		"backlog means backlog": {
			when: "backlog",
			then: recurring.Backlog(),
		},
		"backlog:param can not be parsed (it should not take any parameters)": {
			when:        "backlog:param",
			expectError: true,
		},
		"empty string can not be parsed (it is not policy)": {
			when:        "",
			expectError: true,
		},
		"unknown policy can not be parsed (it is not policy)": {
			when:        "???????unknown??????",
			expectError: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, expected := testcase.when, testcase.then
			actual, err := recurring.ParsePolicy(when)

			if testcase.expectError {
				if err == nil {
					t.Fatal("expected error does not occured")
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if actual != expected {
				t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, expected)
			}
		})
	}
}

func TestPolicyNext(t *testing.T) {
	for name, testcase := range map[string]struct {
		policy  recurring.Policy
		updated bool
		err     error
		then    loop.Next
	}{
		"forever goes again at once while updated": {
			policy: recurring.Forever(3 * time.Second), updated: true,
			then: loop.Continue(0),
		},
		"forever cools down when nothing was done": {
			policy: recurring.Forever(3 * time.Second),
			then:   loop.Continue(3 * time.Second),
		},
		"backlog goes again at once while updated": {
			policy: recurring.Backlog(), updated: true,
			then: loop.Continue(0),
		},
		"backlog breaks when the backlog is drained": {
			policy: recurring.Backlog(),
			then:   loop.Break(nil),
		},
		"until error passes non-errors through": {
			policy: recurring.UntilError(recurring.Forever(0)), updated: true,
			then: loop.Continue(0),
		},
	} {
		t.Run(name, func(t *testing.T) {
			actual := testcase.policy.Next(testcase.updated, testcase.err)
			if actual != testcase.then {
				t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, testcase.then)
			}
		})
	}

	t.Run("until error breaks with the error", func(t *testing.T) {
		expected := errors.New("fake error")
		actual := recurring.UntilError(recurring.Forever(0)).Next(true, expected)
		if actual != loop.Break(expected) {
			t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, loop.Break(expected))
		}
	})
}
