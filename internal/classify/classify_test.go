package classify

import (
	"testing"

	"github.com/aucus/proactive-ai-bot/internal/domain"
)

func TestClassifyAI(t *testing.T) {
	cat := Classify("OpenAI ships a faster GPT model", "Inference costs drop again")
	if cat != domain.CategoryAI {
		t.Errorf("expected AI, got %s", cat)
	}
}

func TestClassifyKoreanParticle(t *testing.T) {
	cat := Classify("AI가 바꾸는 검색 시장", "")
	if cat != domain.CategoryAI {
		t.Errorf("expected AI for keyword followed by a particle, got %s", cat)
	}
}

func TestClassifyEdTech(t *testing.T) {
	cat := Classify("에듀테크 스타트업, 온라인 교육 플랫폼 출시", "")
	if cat != domain.CategoryEdTech {
		t.Errorf("expected EdTech ahead of Tech, got %s", cat)
	}
}

func TestClassifyEdTechPhrase(t *testing.T) {
	cat := Classify("Education technology funding hits a record", "")
	if cat != domain.CategoryEdTech {
		t.Errorf("expected EdTech, got %s", cat)
	}
}

func TestClassifyTech(t *testing.T) {
	cat := Classify("Chip startup raises funding for new hardware", "")
	if cat != domain.CategoryTech {
		t.Errorf("expected Tech, got %s", cat)
	}
}

func TestClassifyAIBeatsEdTech(t *testing.T) {
	cat := Classify("학교 교육에 AI 튜터 도입", "")
	if cat != domain.CategoryAI {
		t.Errorf("expected AI to win over EdTech, got %s", cat)
	}
}

func TestClassifyDescriptionOnly(t *testing.T) {
	cat := Classify("이번 주 업계 소식", "Machine learning teams are hiring")
	if cat != domain.CategoryAI {
		t.Errorf("expected AI from description keyword, got %s", cat)
	}
}

func TestClassifySubstringDoesNotMatch(t *testing.T) {
	cat := Classify("The mayor said the train was late", "")
	if cat != domain.CategoryNews {
		t.Errorf("expected News when 'ai' only appears inside a word, got %s", cat)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	cat := Classify("", "")
	if cat != domain.CategoryNews {
		t.Errorf("expected News for empty input, got %s", cat)
	}
}

func TestResolveAlias(t *testing.T) {
	tests := []struct {
		alias    string
		expected domain.Category
		wantErr  bool
	}{
		{"ai", domain.CategoryAI, false},
		{"tech", domain.CategoryTech, false},
		{"edtech", domain.CategoryEdTech, false},
		{" AI ", domain.CategoryAI, false},
		{"EdTech", domain.CategoryEdTech, false},
		{"news", domain.CategoryNews, false},
		{"sports", "", true},
	}

	for _, tt := range tests {
		got, err := ResolveAlias(tt.alias)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveAlias(%q): expected error", tt.alias)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveAlias(%q): unexpected error: %v", tt.alias, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ResolveAlias(%q) = %q, want %q", tt.alias, got, tt.expected)
		}
	}
}

func TestOrdered(t *testing.T) {
	cats := Ordered()
	if len(cats) != 3 {
		t.Fatalf("expected 3 keyword categories, got %d", len(cats))
	}
	if cats[0] != domain.CategoryAI || cats[1] != domain.CategoryEdTech || cats[2] != domain.CategoryTech {
		t.Errorf("unexpected order: %v", cats)
	}
}
