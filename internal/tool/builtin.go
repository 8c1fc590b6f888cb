package tool

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// sloganTemplates are filled with the product description. Selection is
// a hash of the input, so identical inputs always yield the same line.
var sloganTemplates = []string{
	"%s: built for the road ahead.",
	"%s. Less noise, more drive.",
	"Meet %s: the upgrade you can feel.",
	"%s, made simple.",
	"Go further with %s.",
}

// Slogan is the built-in slogan helper. It is deterministic and makes
// no external calls.
type Slogan struct{}

// NewSlogan creates the built-in slogan tool.
func NewSlogan() Slogan { return Slogan{} }

// Name implements Tool.
func (Slogan) Name() string { return "slogan" }

// Description implements Tool.
func (Slogan) Description() string {
	return "Generates a short marketing slogan for the product described in the input."
}

// Call implements Tool.
func (Slogan) Call(_ context.Context, input string) (string, error) {
	subject := strings.TrimSpace(input)
	if subject == "" {
		return "", fmt.Errorf("slogan: empty input")
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	template := sloganTemplates[h.Sum32()%uint32(len(sloganTemplates))]
	return fmt.Sprintf(template, subject), nil
}
