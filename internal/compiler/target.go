package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/v0xg/stepscript/internal/action"
)

// Target describes one output dialect: the script skeleton around the
// action statements and one statement template per supported kind.
type Target struct {
	Name   string
	Ext    string
	Indent string

	// Command is the interpreter invocation a script file is appended to
	Command []string

	// Quote renders a string literal in the target language
	Quote func(string) string

	// Depth is the nesting level of action statements inside the routine
	Depth int

	Header []string
	Footer []string

	// Statements holds the template lines emitted for each kind. Kinds
	// missing from the table are unsupported.
	Statements map[action.Kind][]string

	// Imports lists extra imports a kind needs; only used by targets whose
	// header carries an $IMPORTS line.
	Imports map[action.Kind][]string

	True, False string
}

const phImports = "$IMPORTS"

// DefaultTarget is used when no target is named
const DefaultTarget = "python"

var targets = map[string]*Target{
	"python":     pythonTarget,
	"javascript": javascriptTarget,
	"go":         goTarget,
}

var targetAliases = map[string]string{
	"py":     "python",
	"js":     "javascript",
	"node":   "javascript",
	"golang": "go",
	"rod":    "go",
}

// LookupTarget returns the named target (or an alias of one)
func LookupTarget(name string) (*Target, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultTarget
	}
	if canonical, ok := targetAliases[name]; ok {
		name = canonical
	}
	t, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("unknown target: %s (supported: %s)", name, strings.Join(TargetNames(), ", "))
	}
	return t, nil
}

// TargetForExt returns the target whose scripts use the file extension ext
// (with or without the leading dot)
func TargetForExt(ext string) (*Target, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, t := range targets {
		if t.Ext == ext {
			return t, true
		}
	}
	return nil, false
}

// TargetNames lists the canonical target names, sorted
func TargetNames() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// statement returns the template for a kind, or nil when unsupported
func (t *Target) statement(k action.Kind) []string {
	return t.Statements[k]
}

// imports collects the sorted, de-duplicated imports the actions require
func (t *Target) imports(actions []action.Action) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range actions {
		for _, imp := range t.Imports[a.Kind()] {
			if !seen[imp] {
				seen[imp] = true
				out = append(out, imp)
			}
		}
	}
	sort.Strings(out)
	return out
}

var pythonTarget = &Target{
	Name:    "python",
	Ext:     "py",
	Command: []string{"python3"},
	Indent:  "    ",
	Quote:   quoteSingle,
	Depth:   2,
	True:    "True",
	False:   "False",
	Header: []string{
		"# Generated Playwright automation script",
		"from playwright.sync_api import sync_playwright",
		"",
		"def run_automation():",
		"    with sync_playwright() as p:",
		"        browser = p.chromium.launch(headless=$HEADLESS)",
		"        page = browser.new_page()",
		"        page.goto($URL)",
	},
	Statements: map[action.Kind][]string{
		action.KindClick:      {"page.click($SELECTOR)"},
		action.KindFill:       {"page.fill($SELECTOR, $VALUE)"},
		action.KindWait:       {"page.wait_for_timeout($RAW)"},
		action.KindScreenshot: {"page.screenshot(path=$VALUE)"},
		action.KindReadText: {
			"text = page.locator($SELECTOR).text_content()",
			"print(f'Text: {text}')",
		},
		action.KindEnumerateElements: {
			"elements = page.query_selector_all($SELECTOR)",
			"print(f'Found {len(elements)} element(s): {elements}')",
		},
		action.KindSnapshot: {
			"content = page.content()",
			"print(f'Page snapshot: {content[:200]}...')",
		},
	},
	Footer: []string{
		"        browser.close()",
		"",
		"if __name__ == '__main__':",
		"    run_automation()",
	},
}

var javascriptTarget = &Target{
	Name:    "javascript",
	Ext:     "js",
	Command: []string{"node"},
	Indent:  "  ",
	Quote:   quoteSingle,
	Depth:   2,
	True:    "true",
	False:   "false",
	Header: []string{
		"// Generated Playwright automation script",
		"const { chromium } = require('playwright');",
		"",
		"async function runAutomation() {",
		"  const browser = await chromium.launch({ headless: $HEADLESS });",
		"  const page = await browser.newPage();",
		"  try {",
		"    await page.goto($URL);",
	},
	Statements: map[action.Kind][]string{
		action.KindClick:      {"await page.click($SELECTOR);"},
		action.KindFill:       {"await page.fill($SELECTOR, $VALUE);"},
		action.KindWait:       {"await page.waitForTimeout($RAW);"},
		action.KindScreenshot: {"await page.screenshot({ path: $VALUE });"},
		action.KindReadText: {
			"await page.locator($SELECTOR).textContent().then((text) => console.log(`Text: ${text}`));",
		},
		action.KindEnumerateElements: {
			"await page.$$($SELECTOR).then((elements) => console.log(`Found ${elements.length} element(s): ${elements}`));",
		},
		action.KindSnapshot: {
			"await page.content().then((content) => console.log(`Page snapshot: ${content.slice(0, 200)}...`));",
		},
	},
	Footer: []string{
		"  } finally {",
		"    await browser.close();",
		"  }",
		"}",
		"",
		"if (require.main === module) {",
		"  runAutomation().catch((err) => {",
		"    console.error(err);",
		"    process.exit(1);",
		"  });",
		"}",
	},
}

var goTarget = &Target{
	Name:    "go",
	Ext:     "go",
	Command: []string{"go", "run"},
	Indent:  "\t",
	Quote:   strconv.Quote,
	Depth:   1,
	True:    "true",
	False:   "false",
	Header: []string{
		"// Generated go-rod automation script",
		"package main",
		"",
		"import (",
		phImports,
		"",
		"\t\"github.com/go-rod/rod\"",
		"\t\"github.com/go-rod/rod/lib/launcher\"",
		")",
		"",
		"func runAutomation() {",
		"\tu := launcher.New().Headless($HEADLESS).MustLaunch()",
		"\tbrowser := rod.New().ControlURL(u).MustConnect()",
		"\tpage := browser.MustPage($URL)",
		"\tpage.MustWaitLoad()",
	},
	Statements: map[action.Kind][]string{
		action.KindClick:      {"page.MustElement($SELECTOR).MustClick()"},
		action.KindFill:       {"page.MustElement($SELECTOR).MustSelectAllText().MustInput($VALUE)"},
		action.KindWait:       {"time.Sleep($RAW * time.Millisecond)"},
		action.KindScreenshot: {"page.MustScreenshot($VALUE)"},
		action.KindReadText: {
			"fmt.Println(\"Text:\", page.MustElement($SELECTOR).MustText())",
		},
		action.KindEnumerateElements: {
			"{",
			"\telements := page.MustElements($SELECTOR)",
			"\tfmt.Printf(\"Found %d element(s): %v\\n\", len(elements), elements)",
			"}",
		},
		action.KindSnapshot: {
			"fmt.Printf(\"Page snapshot: %.200s...\\n\", page.MustHTML())",
		},
	},
	Imports: map[action.Kind][]string{
		action.KindWait:              {"time"},
		action.KindReadText:          {"fmt"},
		action.KindEnumerateElements: {"fmt"},
		action.KindSnapshot:          {"fmt"},
	},
	Footer: []string{
		"\tbrowser.MustClose()",
		"}",
		"",
		"func main() {",
		"\trunAutomation()",
		"}",
	},
}
