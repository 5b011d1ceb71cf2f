package history

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Word lists for memorable run identifiers. Short, concrete, unambiguous.
var adjectives = []string{
	"agile", "amber", "avid", "bold", "brave", "brisk", "calm",
	"clear", "clever", "cobalt", "coral", "crisp", "deft", "eager",
	"exact", "fleet", "frank", "fresh", "gentle", "gold", "green",
	"hardy", "hazel", "ideal", "jade", "keen", "lively", "lucid",
	"lunar", "mellow", "mighty", "nimble", "noble", "novel", "olive",
	"patient", "pearl", "polar", "prime", "proud", "quick", "quiet",
	"rapid", "ready", "robust", "royal", "sage", "sharp", "sleek",
	"smart", "solar", "solid", "sound", "spry", "steady", "stellar",
	"stout", "sturdy", "subtle", "swift", "tidy", "vivid", "warm",
	"wise",
}

var nouns = []string{
	"anchor", "arrow", "aspen", "atlas", "beacon", "birch", "blaze",
	"breeze", "brook", "canyon", "cedar", "comet", "copper", "cove",
	"crane", "creek", "crest", "dawn", "delta", "drift", "eagle",
	"echo", "ember", "falcon", "fern", "finch", "fjord", "flint",
	"forge", "frost", "gale", "geyser", "glade", "granite", "grove",
	"harbor", "hawk", "heron", "inlet", "iris", "jasper", "juniper",
	"kernel", "knoll", "lantern", "lark", "ledge", "linden", "lotus",
	"lynx", "maple", "marsh", "mesa", "moss", "nova", "oasis",
	"onyx", "orbit", "osprey", "otter", "pebble", "pier", "prism",
	"quartz", "raven", "reef", "ridge", "robin", "sable", "slate",
	"spark", "spire", "spruce", "summit", "surge", "swan", "thorn",
	"tide", "torch", "trail", "vale", "vapor", "willow", "wren",
	"zenith", "zephyr",
}

// NewRunID creates an identifier in adjective_noun_YYYYMMDD_HHMMSS format.
// crypto/rand keeps concurrent starts within the same second distinct.
func NewRunID() (string, error) {
	adj, err := randomWord(adjectives)
	if err != nil {
		return "", fmt.Errorf("selecting adjective: %w", err)
	}
	noun, err := randomWord(nouns)
	if err != nil {
		return "", fmt.Errorf("selecting noun: %w", err)
	}
	return fmt.Sprintf("%s_%s_%s", adj, noun, time.Now().Format("20060102_150405")), nil
}

func randomWord(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("word list is empty")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("generating random index: %w", err)
	}
	return words[n.Int64()], nil
}
