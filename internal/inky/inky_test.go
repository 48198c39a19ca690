package inky

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func expand(t *testing.T, src string) string {
	t.Helper()
	out, err := New().Expand([]byte(src))
	require.NoError(t, err)
	return string(out)
}

func TestExpand_RowWithColumns(t *testing.T) {
	got := expand(t, `<row><columns large="6">A</columns><columns large="6">B</columns></row>`)
	require.Equal(t, `<table class="row"><tbody><tr>`+
		`<th class="small-12 large-6 columns first"><table><tbody><tr><th>A</th></tr></tbody></table></th>`+
		`<th class="small-12 large-6 columns last"><table><tbody><tr><th>B</th></tr></tbody></table></th>`+
		`</tr></tbody></table>`, got)
}

func TestExpand_FullWidthColumnGetsExpander(t *testing.T) {
	got := expand(t, `<columns>X</columns>`)
	require.Equal(t, `<th class="small-12 large-12 columns first last"><table><tbody><tr>`+
		`<th>X</th><th class="expander"></th></tr></tbody></table></th>`, got)
}

func TestExpand_ColumnWithNestedRowHasNoExpander(t *testing.T) {
	got := expand(t, `<columns><row><columns>X</columns></row></columns>`)
	require.Contains(t, got, `<th class="small-12 large-12 columns first last"><table><tbody><tr><th><table class="row">`)
	require.Equal(t, 1, strings.Count(got, `class="expander"`))
}

func TestExpand_ColumnSizesSplitEvenly(t *testing.T) {
	got := expand(t, `<row><columns small="12">A</columns><columns>B</columns><columns>C</columns></row>`)
	require.Contains(t, got, `class="small-12 large-12 columns first"`)
	require.Contains(t, got, `class="small-12 large-4 columns"`)
	require.Contains(t, got, `class="small-12 large-4 columns last"`)
}

func TestExpand_Container(t *testing.T) {
	got := expand(t, `<container class="header">x</container>`)
	require.Equal(t, `<table align="center" class="container header"><tbody><tr><td>x</td></tr></tbody></table>`, got)
}

func TestExpand_Button(t *testing.T) {
	got := expand(t, `<button href="https://example.test" target="_blank">Go</button>`)
	require.Equal(t, `<table class="button"><tbody><tr><td><table><tbody><tr><td>`+
		`<a href="https://example.test" target="_blank">Go</a>`+
		`</td></tr></tbody></table></td></tr></tbody></table>`, got)
}

func TestExpand_ExpandedButton(t *testing.T) {
	got := expand(t, `<button class="expand" href="#">Go</button>`)
	require.Equal(t, `<table class="button expand"><tbody><tr><td><table><tbody><tr><td>`+
		`<center data-parsed=""><a href="#" align="center" class="float-center">Go</a></center>`+
		`</td></tr></tbody></table></td><td class="expander"></td></tr></tbody></table>`, got)
}

func TestExpand_Spacer(t *testing.T) {
	got := expand(t, `<spacer size="10"></spacer>`)
	require.Equal(t, "<table class=\"spacer\"><tbody><tr><td height=\"10\" style=\"font-size:10px;line-height:10px;\">\u00a0</td></tr></tbody></table>", got)
	require.Contains(t, expand(t, `<spacer></spacer>`), `height="16"`)
}

func TestExpand_CalloutWrapperBlockGrid(t *testing.T) {
	require.Equal(t, `<table class="callout"><tbody><tr><th class="callout-inner primary">Hi</th><th class="expander"></th></tr></tbody></table>`,
		expand(t, `<callout class="primary">Hi</callout>`))
	require.Equal(t, `<table class="wrapper" align="center"><tbody><tr><td class="wrapper-inner">W</td></tr></tbody></table>`,
		expand(t, `<wrapper>W</wrapper>`))
	require.Equal(t, `<table class="block-grid up-3"><tbody><tr>a</tr></tbody></table>`,
		expand(t, `<block-grid up="3">a</block-grid>`))
	require.Equal(t, "<table class=\"h-line\"><tr><th>\u00a0</th></tr></table>", expand(t, `<h-line></h-line>`))
}

func TestExpand_CenteredMenu(t *testing.T) {
	got := expand(t, `<center><menu><item href="#a">A</item></menu></center>`)
	require.Equal(t, `<center data-parsed=""><table class="menu float-center" align="center"><tbody><tr><td><table><tbody><tr>`+
		`<th class="menu-item float-center"><a href="#a">A</a></th>`+
		`</tr></tbody></table></td></tr></tbody></table></center>`, got)
}

func TestExpand_RawIsVerbatim(t *testing.T) {
	got := expand(t, `<row><raw><%= unsubscribe_url %></raw></row>`)
	require.Equal(t, `<table class="row"><tbody><tr><%= unsubscribe_url %></tr></tbody></table>`, got)
}

func TestExpand_UnknownTagsPassThrough(t *testing.T) {
	require.Equal(t, `<p class="lead">hello</p>`, expand(t, `<p class="lead">hello</p>`))
}

func TestExpand_DocumentKeepsHeadAndComments(t *testing.T) {
	src := `<!DOCTYPE html><html><head><!-- <style> --></head><body><container>x</container></body></html>`
	require.Equal(t, `<!DOCTYPE html><html><head><!-- <style> --></head><body>`+
		`<table align="center" class="container"><tbody><tr><td>x</td></tr></tbody></table></body></html>`, expand(t, src))
}
