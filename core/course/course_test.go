package course_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/storage/database/dummy"
	"github.com/trezcool/elimu/tests"
)

func invalidFields(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

func TestFormValidate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name       string
		form       course.Form
		wantFields []string
	}{
		{
			name: "valid",
			form: course.Form{
				Title:    "  Go for beginners ",
				Category: " Programming",
				Level:    "Beginner",
				Tags:     []string{"Go", "go ", "backend"},
				ImageURL: "https://img.test/go.png",
			},
		},
		{name: "no title", form: course.Form{Title: "   "}, wantFields: []string{"title"}},
		{name: "bad level", form: course.Form{Title: "Go", Level: "expert"}, wantFields: []string{"level"}},
		{name: "negative price", form: course.Form{Title: "Go", Price: -1}, wantFields: []string{"price"}},
		{name: "bad rating", form: course.Form{Title: "Go", Rating: 6}, wantFields: []string{"rating"}},
		{name: "bad image", form: course.Form{Title: "Go", ImageURL: "img.png"}, wantFields: []string{"image_url"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.form
			err := f.Validate(validate)
			if tc.wantFields == nil {
				require.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tc.wantFields, invalidFields(err), "got %v", err)
		})
	}

	t.Run("cleans fields", func(t *testing.T) {
		f := tests[0].form
		require.NoError(t, f.Validate(validate))
		assert.Equal(t, "Go for beginners", f.Title)
		assert.Equal(t, "programming", f.Category)
		assert.Equal(t, course.LevelBeginner, f.Level)
		assert.Equal(t, []string{"go", "backend"}, f.Tags)
	})
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := course.NewService(dummydb.NewCourseRepository(dummydb.Open()))

	crs, created, err := svc.Save(ctx, course.Form{
		Title:      "Go for beginners",
		Level:      course.LevelBeginner,
		Price:      4900,
		Tags:       []string{"go"},
		Instructor: "Ada",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, crs.ID)
	assert.False(t, crs.CreatedAt.IsZero())

	_, err = svc.GetPublic(ctx, crs.ID)
	assert.True(t, core.IsNotFound(err), "drafts are hidden")

	updated, created, err := svc.Save(ctx, course.Form{
		FormID:      core.FormID{ID: crs.ID},
		Title:       "Go for everyone",
		Level:       course.LevelIntermediate,
		Price:       4900,
		Tags:        []string{"go"},
		IsPublished: true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, crs.ID, updated.ID)
	assert.Equal(t, crs.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Go for everyone", updated.Title)
	assert.Empty(t, updated.Instructor, "the form replaces every field")

	pub, err := svc.GetPublic(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, course.LevelIntermediate, pub.Level)

	_, _, err = svc.Save(ctx, course.Form{Title: "Rust", Level: course.LevelAdvanced})
	require.NoError(t, err)

	filter := &course.QueryFilter{Search: "EVERYONE"}
	filter.Public()
	rows, err := svc.Query(ctx, filter, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, crs.ID, rows[0].ID)

	rows, err = svc.Query(ctx, &course.QueryFilter{Level: course.LevelAdvanced}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rust", rows[0].Title)

	_, _, err = svc.Save(ctx, course.Form{FormID: core.FormID{ID: core.NewID()}, Title: "Ghost"})
	assert.True(t, core.IsNotFound(err))

	n, err := svc.Delete(ctx, crs.ID, core.NewID())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = svc.Get(ctx, crs.ID)
	assert.True(t, core.IsNotFound(err))
}
