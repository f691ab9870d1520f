// Package prompt builds the natural-language prompts sent to the text
// generation provider and owns the file-extension/language tables.
//
// Everything here is a pure function of its inputs: no I/O, no config.
// That keeps the exact prompt wording testable without a provider.
package prompt

import (
	"fmt"
	"path"
	"strings"
)

// UnknownLanguage is returned for extensions missing from the table. It is
// passed through to prompts and responses unchanged, never rejected.
const UnknownLanguage = "unknown"

// fallbackExtension is used for test files whose language has no extension.
const fallbackExtension = "txt"

var extensionToLanguage = map[string]string{
	"js":   "javascript",
	"ts":   "typescript",
	"py":   "python",
	"java": "java",
	"cpp":  "cpp",
	"c":    "c",
	"cs":   "csharp",
	"go":   "go",
	"rs":   "rust",
	"php":  "php",
	"rb":   "ruby",
}

var languageToExtension = invert(extensionToLanguage)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// LanguageFromFileName infers the language from the text after the last
// dot, case-insensitively. A name without a dot is treated as if the whole
// name were the extension, so "Makefile" yields UnknownLanguage.
//
//	LanguageFromFileName("Foo.py")          // "python"
//	LanguageFromFileName("App.tsx")         // "unknown"
//	LanguageFromFileName("Bar.unknownext")  // "unknown"
func LanguageFromFileName(fileName string) string {
	ext := fileName
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		ext = fileName[i+1:]
	}
	if lang, ok := extensionToLanguage[strings.ToLower(ext)]; ok {
		return lang
	}
	return UnknownLanguage
}

// ExtensionForLanguage is the inverse of the language table, falling back
// to "txt".
func ExtensionForLanguage(language string) string {
	if ext, ok := languageToExtension[language]; ok {
		return ext
	}
	return fallbackExtension
}

// TestFileName strips the final extension of fileName (if there is one in
// the last path segment) and appends ".test.<ext>" for language.
//
//	TestFileName("Calculator.js", "javascript")  // "Calculator.test.js"
//	TestFileName("Makefile", "unknown")          // "Makefile.test.txt"
func TestFileName(fileName, language string) string {
	base := strings.TrimSuffix(fileName, path.Ext(fileName))
	return base + ".test." + ExtensionForLanguage(language)
}

// Summary returns the prompt asking for a test-case summary of one file.
func Summary(fileName, language, content string) string {
	return fmt.Sprintf(`Analyze the following code and generate a comprehensive test case summary:

File: %s
Language: %s
Code:
%s

Please provide:
1. A brief description of what this code does
2. List of test scenarios that should be covered
3. Edge cases to consider
4. Suggested test framework (JUnit, Jest, pytest, etc.)
5. Mock requirements if any

Format the response as a structured summary.`, fileName, language, content)
}

// TestCode returns the prompt asking for executable test code built from a
// previously generated summary and the original source.
func TestCode(fileName, language, summary, originalCode string) string {
	return fmt.Sprintf(`Based on the following test summary and original code, generate complete, executable test code:

Original File: %s
Language: %s
Test Summary: %s
Original Code: %s

Generate comprehensive test code that:
1. Uses appropriate testing framework for %s
2. Covers all scenarios mentioned in the summary
3. Includes proper setup and teardown
4. Has clear, descriptive test names
5. Includes comments explaining complex test logic

Return only the test code, properly formatted and ready to run.`, fileName, language, summary, originalCode, language)
}
