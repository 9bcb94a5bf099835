package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifier_Categories(t *testing.T) {
	t.Parallel()

	c := New()

	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single match",
			text: "Strengthening security at the southern border",
			want: []string{"Immigration"},
		},
		{
			name: "multiple labels sorted",
			text: "Tariffs on imported oil to protect domestic energy and the economy",
			want: []string{"Economy", "Energy"},
		},
		{
			name: "case insensitive",
			text: "REFORMING THE FEDERAL WORKFORCE",
			want: []string{"Government Reform"},
		},
		{
			name: "no match is empty",
			text: "Designating a commemorative month",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, c.Categories(tc.text))
		})
	}
}

func TestClassifier_WholeWordBoundary(t *testing.T) {
	t.Parallel()

	c := New()
	require.Contains(t, c.Categories("a strong defense posture"), "National Security")
	require.NotContains(t, c.Categories("the city was left undefended"), "National Security")
}

func TestClassifier_Agencies(t *testing.T) {
	t.Parallel()

	c := New()
	got := c.Agencies("The Secretary of Homeland Security shall coordinate with the Attorney General")
	require.Contains(t, got, "Department of Homeland Security")
	require.Contains(t, got, "Department of Justice")
	require.NotContains(t, got, "Department of Energy")
}

func TestClassifier_EmptyText(t *testing.T) {
	t.Parallel()

	c := New()
	require.Empty(t, c.Categories(""))
	require.Empty(t, c.Agencies(""))
}
