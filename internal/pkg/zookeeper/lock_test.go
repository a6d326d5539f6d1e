package zookeeper

import (
	"reflect"
	"testing"
)

func TestSortBySequence(t *testing.T) {
	children := []string{
		"_c_f3a1-lock-0000000012",
		"_c_0b9e-lock-0000000010",
		"_c_9c2d-lock-0000000011",
	}
	sortBySequence(children)

	want := []string{
		"_c_0b9e-lock-0000000010",
		"_c_9c2d-lock-0000000011",
		"_c_f3a1-lock-0000000012",
	}
	if !reflect.DeepEqual(children, want) {
		t.Fatalf("sortBySequence() = %v, want %v", children, want)
	}
}
