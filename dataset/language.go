package dataset

import "strings"

// NoExtension is the sentinel extension for files without a dot.
const NoExtension = "no_extension"

// FallbackLanguage is assigned to extensions with no known mapping.
const FallbackLanguage = "Other"

// languageByExtension maps lowercased extensions to a language tag. An
// empty value marks binary and media files that are excluded from
// language statistics entirely.
var languageByExtension = map[string]string{
	"py":    "Python",
	"js":    "JavaScript",
	"ts":    "TypeScript",
	"jsx":   "React/JSX",
	"tsx":   "React/TSX",
	"java":  "Java",
	"cpp":   "C++",
	"cc":    "C++",
	"cxx":   "C++",
	"h":     "C/C++ Header",
	"hpp":   "C++ Header",
	"c":     "C",
	"cs":    "C#",
	"go":    "Go",
	"rs":    "Rust",
	"php":   "PHP",
	"rb":    "Ruby",
	"swift": "Swift",
	"kt":    "Kotlin",
	"scala": "Scala",
	"r":     "R",
	"m":     "MATLAB",
	"sql":   "SQL",
	"html":  "HTML",
	"css":   "CSS",
	"scss":  "SCSS",
	"sass":  "Sass",
	"vue":   "Vue",
	"md":    "Markdown",
	"json":  "Config/JSON",
	"xml":   "Config/XML",
	"yaml":  "Config/YAML",
	"yml":   "Config/YAML",
	"toml":  "Config/TOML",
	"ini":   "Config/INI",
	"sh":    "Shell",
	"bash":  "Bash",
	"ps1":   "PowerShell",
	"ipynb": "Jupyter",
	"txt":   "Text",
	"lock":  "Lock File",

	"gitignore":    "Git",
	"dockerignore": "Docker",
	"env":          "Environment",

	NoExtension: "Other",

	// Binary and compiled artifacts, excluded from language stats.
	"exe":   "",
	"dll":   "",
	"so":    "",
	"dylib": "",
	"pyc":   "",
	"pyo":   "",
	"pyd":   "",
	"class": "",
	"o":     "",
	"a":     "",

	// Media and archives, excluded.
	"png":  "",
	"jpg":  "",
	"jpeg": "",
	"gif":  "",
	"svg":  "",
	"ico":  "",
	"mp4":  "",
	"mp3":  "",
	"wav":  "",
	"pdf":  "",
	"zip":  "",
	"tar":  "",
	"gz":   "",
}

// FileExtension returns the lowercased extension of filename, without the
// dot, or NoExtension when the name contains no dot.
func FileExtension(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return NoExtension
	}
	return strings.ToLower(filename[idx+1:])
}

// LanguageFor maps an extension to a language tag. ok is false for binary
// and media extensions, which are excluded from language statistics.
// Unknown extensions map to FallbackLanguage, never to exclusion.
func LanguageFor(extension string) (language string, ok bool) {
	lang, known := languageByExtension[extension]
	if !known {
		return FallbackLanguage, true
	}
	if lang == "" {
		return "", false
	}
	return lang, true
}
