package training

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VerifyArtifacts checks that a completed trainer run actually exported
// a loadable model: a config.json, at least one weights shard, and the
// tokenizer. A model that cannot tokenize input is unusable for
// inference even with intact weights.
func VerifyArtifacts(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("artifact path %s is not a directory", dir)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		return fmt.Errorf("missing config.json in %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read artifact dir: %w", err)
	}
	var hasWeights, hasTokenizer bool
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch name := e.Name(); {
		case strings.HasSuffix(name, ".safetensors") || name == "pytorch_model.bin":
			hasWeights = true
		case tokenizerFiles[name]:
			hasTokenizer = true
		}
	}
	if !hasWeights {
		return fmt.Errorf("no model weights found in %s", dir)
	}
	if !hasTokenizer {
		return fmt.Errorf("no tokenizer files found in %s", dir)
	}
	return nil
}

// tokenizerFiles are the files any one of which marks a usable
// tokenizer export. BART ships tokenizer.json or vocab.json; PEGASUS
// and mBART ship a sentencepiece model.
var tokenizerFiles = map[string]bool{
	"tokenizer.json":          true,
	"vocab.json":              true,
	"spiece.model":            true,
	"sentencepiece.bpe.model": true,
}
