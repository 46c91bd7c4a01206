package training

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVerifyArtifacts(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, dir, name string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("valid safetensors export", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		write(t, dir, "config.json")
		write(t, dir, "model.safetensors")
		write(t, dir, "tokenizer.json")

		if err := VerifyArtifacts(dir); err != nil {
			t.Errorf("VerifyArtifacts = %v, want nil", err)
		}
	})

	t.Run("valid pytorch export", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		write(t, dir, "config.json")
		write(t, dir, "pytorch_model.bin")
		write(t, dir, "vocab.json")

		if err := VerifyArtifacts(dir); err != nil {
			t.Errorf("VerifyArtifacts = %v, want nil", err)
		}
	})

	t.Run("valid sentencepiece export", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		write(t, dir, "config.json")
		write(t, dir, "model.safetensors")
		write(t, dir, "spiece.model")

		if err := VerifyArtifacts(dir); err != nil {
			t.Errorf("VerifyArtifacts = %v, want nil", err)
		}
	})

	t.Run("missing tokenizer", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		write(t, dir, "config.json")
		write(t, dir, "model.safetensors")

		if err := VerifyArtifacts(dir); err == nil {
			t.Error("expected error for missing tokenizer files")
		}
	})

	t.Run("missing config", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		write(t, dir, "model.safetensors")

		if err := VerifyArtifacts(dir); err == nil {
			t.Error("expected error for missing config.json")
		}
	})

	t.Run("missing weights", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		write(t, dir, "config.json")
		write(t, dir, "tokenizer.json")

		if err := VerifyArtifacts(dir); err == nil {
			t.Error("expected error for missing weights")
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		if err := VerifyArtifacts(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
