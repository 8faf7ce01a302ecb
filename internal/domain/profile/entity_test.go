package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

func TestProfile_New(t *testing.T) {
	p, err := New("  Grace Hopper ", "GRACE@Example.com", " Backend Engineer ",
		[]string{" Go ", "", "SQL"}, common.NewID())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Grace Hopper", p.FullName)
	assert.Equal(t, "grace@example.com", p.Email)
	assert.Equal(t, "Backend Engineer", p.Headline)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Equal(t, StatusActive, p.Status)
	assert.True(t, p.IsActive())
	assert.False(t, p.HasResume())
}

func TestProfile_New_Invalid(t *testing.T) {
	creator := common.NewID()

	tests := []struct {
		name      string
		fullName  string
		email     string
		createdBy common.ID
	}{
		{"empty name", "", "g@example.com", creator},
		{"bad email", "Grace", "not-an-email", creator},
		{"no creator", "Grace", "g@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fullName, tt.email, "", nil, tt.createdBy)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidation))
		})
	}
}

func TestProfile_New_EmailOptional(t *testing.T) {
	p, err := New("Grace Hopper", "", "", nil, common.NewID())
	require.NoError(t, err)
	assert.Empty(t, p.Email)
}

func TestProfile_ArchiveUnarchive(t *testing.T) {
	p, _ := New("Grace Hopper", "", "", nil, common.NewID())

	require.NoError(t, p.Archive())
	assert.Equal(t, StatusArchived, p.Status)
	assert.False(t, p.IsActive())

	err := p.Archive()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	require.NoError(t, p.Unarchive())
	assert.True(t, p.IsActive())
	assert.Error(t, p.Unarchive())
}

func TestProfile_UpdateDetails(t *testing.T) {
	p, _ := New("Grace Hopper", "", "", nil, common.NewID())

	err := p.UpdateDetails("Grace B. Hopper", "grace@example.com", "+1 555 0100",
		"Staff Engineer", "Compilers, then everything else.", []string{"COBOL"})
	require.NoError(t, err)
	assert.Equal(t, "Grace B. Hopper", p.FullName)
	assert.Equal(t, "grace@example.com", p.Email)
	assert.Equal(t, "+1 555 0100", p.Phone)
	assert.Equal(t, []string{"COBOL"}, p.Skills)
}

func TestProfile_UpdateDetails_RollsBackOnError(t *testing.T) {
	p, _ := New("Grace Hopper", "grace@example.com", "Engineer", nil, common.NewID())

	err := p.UpdateDetails("", "grace@example.com", "", "", "", nil)
	require.Error(t, err)
	// The failed update must not leave partial changes behind.
	assert.Equal(t, "Grace Hopper", p.FullName)
	assert.Equal(t, "Engineer", p.Headline)

	err = p.UpdateDetails(strings.Repeat("a", 300), "", "", "", "", nil)
	require.Error(t, err)
	assert.Equal(t, "Grace Hopper", p.FullName)
}

func TestProfile_ResumeLifecycle(t *testing.T) {
	p, _ := New("Grace Hopper", "", "", nil, common.NewID())

	require.NoError(t, p.AttachResume("resumes/"+string(p.ID)+"/resume.pdf", "application/pdf", 52_103))
	assert.True(t, p.HasResume())
	assert.Equal(t, "application/pdf", p.ResumeContentType)
	assert.EqualValues(t, 52_103, p.ResumeSize)

	assert.Error(t, p.AttachResume("", "application/pdf", 10))
	assert.Error(t, p.AttachResume("key", "application/pdf", 0))

	p.ClearResume()
	assert.False(t, p.HasResume())
	assert.Empty(t, p.ResumeContentType)
	assert.Zero(t, p.ResumeSize)
}
