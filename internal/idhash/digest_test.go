package idhash

import "testing"

func TestContentDigest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty",
			content: "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "abc",
			content: "abc",
			want:    "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContentDigest(tt.content)
			if got != tt.want {
				t.Errorf("ContentDigest(%q) = %s, want %s", tt.content, got, tt.want)
			}
		})
	}
}

func TestContentDigest_Deterministic(t *testing.T) {
	page := "{{Blue Railroad Token\n|token_id=1\n}}"
	first := ContentDigest(page)
	for i := 0; i < 100; i++ {
		if got := ContentDigest(page); got != first {
			t.Fatalf("iteration %d: digest changed: %s vs %s", i, got, first)
		}
	}
	if ContentDigest(page+" ") == first {
		t.Error("different content must produce a different digest")
	}
}

func TestShort(t *testing.T) {
	if got := Short("ba7816bf8f01cfea414140de5dae2223"); got != "ba7816bf8f01" {
		t.Errorf("Short() = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short() = %q", got)
	}
}
