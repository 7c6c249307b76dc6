package store

import "testing"

func TestTextArray(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want string
	}{
		{"nil", nil, "{}"},
		{"empty", []string{}, "{}"},
		{"values", []string{"Drafting", "Analysis"}, `{"Drafting","Analysis"}`},
	}
	for _, c := range cases {
		v, err := textArray(c.in).Value()
		if err != nil {
			t.Errorf("%s: Value() returned error: %v", c.name, err)
			continue
		}
		got, ok := v.(string)
		if !ok {
			t.Errorf("%s: Value() = %#v, want the array literal %q", c.name, v, c.want)
			continue
		}
		if got != c.want {
			t.Errorf("%s: Value() = %q, want %q", c.name, got, c.want)
		}
	}
}
