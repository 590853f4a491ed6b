package digest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemanjakrstic/snitch/internal/testreport"
	"github.com/nemanjakrstic/snitch/internal/types"
)

func suiteOf(cases ...types.TestCase) []types.TestSuiteReport {
	return []types.TestSuiteReport{{Name: "suite", Failures: len(cases), TestCases: cases}}
}

func failing(name string) types.TestCase {
	return types.TestCase{Name: name, File: "a/b/" + name + ".java", Line: 1, Type: types.CaseTypeFailure}
}

func TestBuild_SingleFailure(t *testing.T) {
	reports := suiteOf(types.TestCase{File: "a/b/Test.java", Line: 42, Name: "testFoo", Type: types.CaseTypeFailure})

	d := Build(testreport.FailingCases(reports), false)

	require.Equal(t, 1, d.Len())
	assert.Equal(t, []string{"Test.java Line: 42\n\n    testFoo\n"}, d.Lines())
}

func TestBuild_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		wantSize int
	}{
		{name: "none", count: 0, wantSize: 0},
		{name: "one", count: 1, wantSize: 1},
		{name: "ten", count: 10, wantSize: 10},
		{name: "eleven", count: 11, wantSize: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cases []types.TestCase
			for i := range tt.count {
				cases = append(cases, failing(fmt.Sprintf("test%d", i)))
			}
			d := Build(testreport.FailingCases(suiteOf(cases...)), false)
			assert.Equal(t, tt.wantSize, d.Len())
		})
	}
}

func TestBuild_PassingCasesDoNotCount(t *testing.T) {
	cases := []types.TestCase{failing("broken")}
	for i := range 20 {
		cases = append(cases, types.TestCase{Name: fmt.Sprintf("ok%d", i), File: "Ok.java", Type: types.CaseTypePass})
	}
	d := Build(testreport.FailingCases(suiteOf(cases...)), false)
	assert.Equal(t, 1, d.Len())
}

func TestBuild_DuplicatesCollapse(t *testing.T) {
	tc := types.TestCase{File: "x/Test.java", Line: 7, Name: "testDup", Type: types.CaseTypeError}
	other := types.TestCase{File: "y/Test.java", Line: 7, Name: "testDup", Type: types.CaseTypeFailure}

	d := Build(testreport.FailingCases(suiteOf(tc, other)), false)

	// Different directories, same base name, line and test name.
	assert.Equal(t, 1, d.Len())
}

func TestBuild_PreservesInsertionOrder(t *testing.T) {
	d := Build(testreport.FailingCases(suiteOf(
		types.TestCase{ClassName: "z.Last", Type: types.CaseTypeFailure},
		types.TestCase{ClassName: "a.First", Type: types.CaseTypeFailure},
	)), false)
	assert.Equal(t, []string{"z.Last", "a.First"}, d.Lines())
}

func TestBuild_DropsCasesWithoutText(t *testing.T) {
	d := Build(testreport.FailingCases(suiteOf(
		types.TestCase{Name: "nameOnly", Type: types.CaseTypeFailure},
	)), false)
	assert.True(t, d.Empty())
}

func TestFormatCase(t *testing.T) {
	tests := []struct {
		name   string
		tc     types.TestCase
		detail bool
		want   string
		wantOK bool
	}{
		{
			name:   "file low detail",
			tc:     types.TestCase{File: "a/b/Test.java", Line: 42, Name: "testFoo"},
			want:   "Test.java Line: 42\n\n    testFoo\n",
			wantOK: true,
		},
		{
			name:   "windows path",
			tc:     types.TestCase{File: `C:\src\Test.java`, Line: 3, Name: "testWin"},
			want:   "Test.java Line: 3\n\n    testWin\n",
			wantOK: true,
		},
		{
			name:   "file without line",
			tc:     types.TestCase{File: "spec/foo_spec.rb", Name: "does things"},
			want:   "foo_spec.rb\n\n    does things\n",
			wantOK: true,
		},
		{
			name: "file detail truncates messages",
			tc: types.TestCase{
				File:     "Test.java",
				Line:     9,
				Name:     "ignored",
				Messages: []string{"l1\nl2\nl3\nl4\nl5\nl6\nl7", "other"},
			},
			detail: true,
			want:   "Test.java Line: 9\n    l1\n    l2\n    l3\n    l4\n    l5\n    other\n\n",
			wantOK: true,
		},
		{
			name:   "file detail without messages",
			tc:     types.TestCase{File: "Test.java", Line: 1},
			detail: true,
			want:   "Test.java Line: 1\n\n",
			wantOK: true,
		},
		{
			name:   "class name only",
			tc:     types.TestCase{ClassName: "com.example.FooTest", Name: "testFoo"},
			want:   "com.example.FooTest",
			wantOK: true,
		},
		{
			name:   "nothing",
			tc:     types.TestCase{Name: "orphan"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatCase(tt.tc, tt.detail)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDigest_AddAndContains(t *testing.T) {
	var d Digest
	assert.True(t, d.Empty())
	assert.True(t, d.Add("a"))
	assert.False(t, d.Add("a"))
	assert.True(t, d.Add("b"))
	assert.True(t, d.Contains("a"))
	assert.False(t, d.Contains("c"))
	assert.Equal(t, "a\nb", d.String())
}

func TestDigest_LinesIsACopy(t *testing.T) {
	var d Digest
	d.Add("a")
	lines := d.Lines()
	lines[0] = "mutated"
	assert.Equal(t, []string{"a"}, d.Lines())
}

func TestDigest_MarshalJSON(t *testing.T) {
	var empty Digest
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	var d Digest
	d.Add("x")
	data, err = json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(data))
}
