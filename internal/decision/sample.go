package decision

// wnpLocales is the locale set whose users receive a "what's new" page
// after updating.
var wnpLocales = []any{
	"ast", "bg", "bs", "cak", "cs", "cy", "da", "de", "dsb", "en-GB",
	"en-US", "eo", "es-AR", "es-CL", "es-ES", "es-MX", "et", "fa", "fr",
}

// SampleGraph builds the Firefox 56/57 update-routing graph: product
// gate, OS fan-out, version cutoffs at "56", exact-version checks for
// watershed releases, locale-based what's-new-page variants, a JAWS
// compatibility check, and the 32-bit→64-bit migration path for
// Windows users on a 64-bit CPU with a 32-bit OS.
func SampleGraph() *Graph {
	nodes := map[NodeID]Node{
		"start":  NewEqualsBranch("product", "Firefox", "os", "fennec"),
		"fennec": NewTerminal("Newest Fennec"),

		"os": NewEnumerated("os", []EnumBranch{
			{Value: "windows", Target: "win-cpuarch"},
			{Value: "linux", Target: "unix-cutoff"},
		}, "unix-cutoff"),

		// Linux and macOS: bz2 partials below 56, lzma from 56 up.
		"unix-cutoff":     NewOrderedCutoff("version", "56", "unix-old-locale", "unix-new-locale"),
		"unix-old-locale": NewSetMembership("locale", wnpLocales, "bz2-wnp", "bz2-nownp"),
		"bz2-wnp":         NewTerminal("firefox57-bz2-wnp"),
		"bz2-nownp":       NewTerminal("firefox57-bz2-nownp"),
		"unix-new-locale": NewSetMembership("locale", wnpLocales, "lzma-wnp", "lzma-nownp"),
		"lzma-wnp":        NewTerminal("firefox57-lzma-wnp"),
		"lzma-nownp":      NewTerminal("firefox57-lzma-nownp"),

		// Windows: 32-bit CPUs ship the 56 partial directly; 64-bit
		// CPUs on a 32-bit OS try to migrate.
		"win-cpuarch": NewEqualsBranch("cpuarch", 32, "bz2-partial", "win-osarch"),
		"win-osarch":  NewEqualsBranch("osarch", 32, "migrate-jaws", "win-cutoff"),

		"win-cutoff":      NewOrderedCutoff("version", "56", "ship56", "jaws"),
		"ship56":          NewEqualsBranch("version", "55.0.3", "bz2-partial", "ship56-fallback"),
		"ship56-fallback": NewEqualsBranch("version", "54.0.1", "bz2-partial", "bz2-complete"),
		"bz2-partial":     NewTerminal("firefox56-bz2partial"),
		"bz2-complete":    NewTerminal("firefox56-bz2complete"),

		"jaws":              NewEqualsBranch("JAWS", "1", "jaws-incompatible", "jaws-ok-locale"),
		"jaws-incompatible": NewTerminal("firefox56.0.2-jaws-incompatible"),
		"jaws-ok-locale":    NewSetMembership("locale", wnpLocales, "lzma-wnp", "lzma-nownp"),

		// Migration path: only 56.0 migrates, and only with JAWS
		// compatible.
		"migrate-jaws":         NewEqualsBranch("JAWS", "1", "migrate-jaws-version", "migrate-version"),
		"migrate-jaws-version": NewEqualsBranch("version", "56.0", "lzma-migration", "jaws-incompatible"),
		"lzma-migration":       NewTerminal("firefox56.0.2-lzma-migration"),
		"migrate-version":      NewEqualsBranch("version", "56.0", "migrate-locale", "stay-locale"),
		"migrate-locale":       NewSetMembership("locale", wnpLocales, "lzmacomplete-wnp", "lzmacomplete-nownp"),
		"lzmacomplete-wnp":     NewTerminal("firefox57-lzmacomplete-wnp"),
		"lzmacomplete-nownp":   NewTerminal("firefox57-lzmacomplete-nownp"),
		"stay-locale":          NewSetMembership("locale", wnpLocales, "lzma-wnp", "lzma-nownp"),
	}

	g, err := New("start", nodes)
	if err != nil {
		// The sample is static; a construction failure is a
		// programming error.
		panic(err)
	}
	return g
}
