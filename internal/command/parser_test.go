package command

import (
	"strings"
	"testing"
)

func TestParseKnownCommands(t *testing.T) {
	p := NewParser()
	cases := []struct {
		text string
		want Type
	}{
		{"抽餐廳", TypeRecommend},
		{"吃什麼", TypeRecommend},
		{"再來一家", TypeRecommend},
		{"recommend", TypeRecommend},
		{"Random", TypeRecommend},
		{"what should I eat", TypeRecommend},
		{"help", TypeHelp},
		{"幫助", TypeHelp},
		{"?", TypeHelp},
		{"status", TypeStatus},
		{"我的位置", TypeStatus},
		{"clear", TypeClear},
		{"清除", TypeClear},
		{"重置", TypeClear},
	}
	for _, tc := range cases {
		got := p.Parse(tc.text)
		if got.Type != tc.want {
			t.Fatalf("Parse(%q).Type = %q, want %q", tc.text, got.Type, tc.want)
		}
		if got.Confidence <= 0 {
			t.Fatalf("Parse(%q).Confidence = %v, want > 0", tc.text, got.Confidence)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	p := NewParser()
	for _, text := range []string{"", "   ", "hello there", "今天天氣如何", "我想清除一些舊照片"} {
		got := p.Parse(text)
		if got.Type != TypeUnknown {
			t.Fatalf("Parse(%q).Type = %q, want unknown", text, got.Type)
		}
		if got.Confidence != 0 {
			t.Fatalf("Parse(%q).Confidence = %v, want 0", text, got.Confidence)
		}
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	p := NewParser()
	got := p.Parse("  抽餐廳  ")
	if got.Type != TypeRecommend || got.Text != "抽餐廳" {
		t.Fatalf("Parse with padding = %+v", got)
	}
}

func TestHelpTextMentionsFlow(t *testing.T) {
	text := HelpText()
	for _, want := range []string{"抽餐廳", "status", "clear", "30 分鐘"} {
		if !strings.Contains(text, want) {
			t.Fatalf("HelpText() missing %q", want)
		}
	}
}
