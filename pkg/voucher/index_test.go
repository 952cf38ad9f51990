package voucher

import (
	"reflect"
	"testing"
)

func TestBuildIndex(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: "Booking 123456 and 123456 again\nref 9876543"},
		{Number: 2, Text: "123456"},
		{Number: 3, Text: ""},
		{Number: 4, Text: "12345 short 12345678901 long"},
	}

	idx := NewIndex(pages)

	if got := pageNumbers(idx.Lookup("123456")); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Lookup(123456) pages = %v, want [1 2]", got)
	}
	if got := pageNumbers(idx.Lookup("9876543")); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Lookup(9876543) pages = %v, want [1]", got)
	}
	if got := idx.Lookup("12345"); got != nil {
		t.Errorf("Lookup(12345) = %v, want nil", got)
	}
	if got := idx.Tokens(); !reflect.DeepEqual(got, []string{"123456", "9876543"}) {
		t.Errorf("Tokens() = %v", got)
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestBuildIndexCustomWidth(t *testing.T) {
	idx := BuildIndex([]Page{{Number: 1, Text: "1234 12345 123456"}}, 4, 5)
	if got := idx.Tokens(); !reflect.DeepEqual(got, []string{"1234", "12345"}) {
		t.Errorf("Tokens() = %v, want [1234 12345]", got)
	}
}

func TestNilIndex(t *testing.T) {
	var idx *BookingIndex
	if idx.Lookup("123456") != nil || idx.Len() != 0 || idx.Tokens() != nil {
		t.Error("nil index should behave as empty")
	}
}
