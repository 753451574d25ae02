package repository

import (
	"testing"

	"github.com/bazaar-next/internal/models"
)

func TestKeywordClause(t *testing.T) {
	got := keywordClause("LIKE", []string{"products.name", " ", "products.description"})
	want := `(products.name LIKE @kw ESCAPE '\' OR products.description LIKE @kw ESCAPE '\')`
	if got != want {
		t.Fatalf("clause mismatch\nwant %s\ngot  %s", want, got)
	}
	if got := keywordClause("ILIKE", []string{"email"}); got != `(email ILIKE @kw ESCAPE '\')` {
		t.Fatalf("unexpected ilike clause: %s", got)
	}
	if got := keywordClause("LIKE", nil); got != "" {
		t.Fatalf("empty columns should produce no clause, got %q", got)
	}
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"book":   "%book%",
		"50%":    `%50\%%`,
		"a_b":    `%a\_b%`,
		`c:\tmp`: `%c:\\tmp%`,
	}
	for in, want := range cases {
		if got := containsPattern(in); got != want {
			t.Fatalf("containsPattern(%q) want %q got %q", in, want, got)
		}
	}
}

func TestCaseInsensitiveLikeDefaultsToLike(t *testing.T) {
	if got := caseInsensitiveLike(nil); got != "LIKE" {
		t.Fatalf("nil db should use LIKE, got %s", got)
	}
	db := setupRepositoryDB(t)
	if got := caseInsensitiveLike(db); got != "LIKE" {
		t.Fatalf("sqlite should use LIKE, got %s", got)
	}
}

func TestApplyKeywordTreatsWildcardLiterally(t *testing.T) {
	db := setupRepositoryDB(t)
	createTestCategory(t, db, "100% cotton")
	createTestCategory(t, db, "1000 cotton")
	var rows []models.Category
	if err := applyKeyword(db.Model(&models.Category{}), "100%", "name").Find(&rows).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "100% cotton" {
		t.Fatalf("percent should match literally, got %+v", rows)
	}
}
