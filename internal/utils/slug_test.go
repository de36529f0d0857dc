package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Corte clásico", "corte-clasico"},
		{"Diseño de barba", "diseno-de-barba"},
		{"Afeitado tradicional", "afeitado-tradicional"},
		{"Corte & barba", "corte-and-barba"},
		{"  Niños / peinado  ", "ninos-peinado"},
		{"D'Artagnan", "dartagnan"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
