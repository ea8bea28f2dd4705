package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCaseAndWhitespaceVariants(t *testing.T) {
	base := Normalize("Jordan", "Bulls", "NBA")

	assert.Equal(t, base, Normalize("jordan ", "bulls", "NBA"))
	assert.Equal(t, base, Normalize("  JORDAN", " Bulls ", "nba"))
	assert.Equal(t, base, Normalize("Jordan", "Bulls", "NBA "))
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize("Luka  Dončić", "Mavericks", "NBA")
	second := Normalize(NormalizeName("Luka  Dončić"), "mavericks", "nba")
	assert.Equal(t, first, second)
}

func TestNormalizeEmptySentinel(t *testing.T) {
	noTeam := Normalize("Jordan", "", "NBA")
	blankTeam := Normalize("Jordan", "   ", "NBA")
	withTeam := Normalize("Jordan", "Bulls", "NBA")

	assert.Equal(t, noTeam, blankTeam)
	assert.NotEqual(t, noTeam, withTeam)
}

func TestNormalizeDistinctSubjects(t *testing.T) {
	assert.NotEqual(t,
		Normalize("Jordan", "Bulls", "NBA"),
		Normalize("Mike Jordan", "Bulls", "NBA"),
	)
}

func TestNormalizeNameTransliterates(t *testing.T) {
	assert.Equal(t, "luka doncic", NormalizeName("Luka Dončić"))
	assert.Equal(t, "giannis antetokounmpo", NormalizeName("  Giannis   ANTETOKOUNMPO "))
	assert.Equal(t, "o neal", NormalizeName("O'Neal"))
	assert.Equal(t, "karl anthony towns", NormalizeName("Karl-Anthony Towns"))
	assert.Equal(t, "dr j", NormalizeName("Dr. J"))
}

func TestHashStable(t *testing.T) {
	fp := Normalize("Jordan", "Bulls", "NBA")
	assert.Equal(t, Hash(fp), Hash(fp))
	assert.Len(t, Hash(fp), 32)
	assert.NotEqual(t, Hash(fp), Hash(Normalize("Pippen", "Bulls", "NBA")))
}

func TestDisplaySubjectPreservesCasing(t *testing.T) {
	assert.Equal(t, "Luka Dončić", DisplaySubject("  Luka   Dončić "))
}
