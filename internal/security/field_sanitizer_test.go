package security

import "testing"

// プレーンテキストはそのまま通過することを検証
func TestFieldSanitizer_PlainText(t *testing.T) {
	s := NewFieldSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "英字名", input: "Rick Sanchez", want: "Rick Sanchez"},
		{name: "記号を含む名前", input: "Mr. Poopybutthole", want: "Mr. Poopybutthole"},
		{name: "次元表記", input: "Dimension C-137", want: "Dimension C-137"},
		{name: "空文字列", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// HTMLタグがすべて除去されることを検証
func TestFieldSanitizer_StripsHTML(t *testing.T) {
	s := NewFieldSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "scriptタグ", input: `<script>alert(1)</script>Rick`, want: "Rick"},
		{name: "imgタグ", input: `<img src=x onerror=alert(1)>Morty`, want: "Morty"},
		{name: "入れ子タグ", input: "<b><i>Summer</i></b>", want: "Summer"},
		{name: "タグのみ", input: "<div></div>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 前後の空白が除去されることを検証
func TestFieldSanitizer_TrimsWhitespace(t *testing.T) {
	s := NewFieldSanitizer()

	got := s.Sanitize("  Birdperson  ")
	if got != "Birdperson" {
		t.Errorf("Sanitize = %q, want %q", got, "Birdperson")
	}
}

// 冪等性: 同一入力に対して常に同一出力を返すことを検証
func TestFieldSanitizer_Idempotent(t *testing.T) {
	s := NewFieldSanitizer()

	input := `<b>Squanchy</b>`
	first := s.Sanitize(input)
	second := s.Sanitize(first)
	if first != second {
		t.Errorf("sanitize is not idempotent: first=%q second=%q", first, second)
	}
}
