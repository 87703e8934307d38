package categories

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Figures & Statues":  "figures-statues",
		"  Plush   Toys  ":   "plush-toys",
		"Pokémon Cards":      "pokemon-cards",
		"T-Shirts (Limited)": "t-shirts-limited",
		"1/7 Scale":          "1-7-scale",
	}
	for input, want := range cases {
		require.Equal(t, want, Slugify(input), "input %q", input)
	}
}
