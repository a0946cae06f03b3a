package watch

import "testing"

func TestHashContent(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{
			name:    "known value",
			content: []byte("hello"),
			want:    "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			name:    "empty content",
			content: []byte{},
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "nil content hashes like empty",
			content: nil,
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashContent(tt.content); got != tt.want {
				t.Errorf("HashContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHashContent_SensitiveToSingleByte(t *testing.T) {
	a := HashContent([]byte("content v1"))
	b := HashContent([]byte("content v2"))
	if a == b {
		t.Error("hashes of differing content are equal")
	}
}
