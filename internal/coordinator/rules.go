package coordinator

import "strings"

// cmsSeedPaths seeds CMS-specific sub-scans with the directories worth
// probing first for each detected stack.
var cmsSeedPaths = map[string][]string{
	"WordPress": {"wp-admin", "wp-content", "wp-includes", "wp-json", "xmlrpc.php", "wp-login.php"},
	"Joomla":    {"administrator", "components", "modules", "templates", "media"},
	"Drupal":    {"user/login", "admin", "sites/default", "core", "modules"},
}

var cmsExtensions = map[string][]string{
	"WordPress": {"php"},
	"Joomla":    {"php"},
	"Drupal":    {"php"},
}

// backupPatterns and backupExtensions drive the low-priority backup-file
// sweep that runs after the main enumeration.
var backupPatterns = []string{
	"backup", "old", "copy", "bkp", "db", "dump", "site", "www", "archive",
}

var backupExtensions = []string{
	"bak", "old", "backup", "zip", "tar.gz", "sql", "7z",
}

// extensionsFor selects file extensions from the detected technology.
func extensionsFor(profile TargetProfile) []string {
	common := []string{"html", "htm", "txt", "xml", "json"}

	tech := strings.ToLower(strings.Join(profile.TechStack, " "))
	switch {
	case strings.Contains(tech, "php"), profile.CMS == "WordPress", profile.CMS == "Joomla", profile.CMS == "Drupal":
		return append([]string{"php", "php3", "php5", "phtml"}, common...)
	case strings.Contains(tech, "asp"), strings.Contains(tech, ".net"):
		return append([]string{"asp", "aspx", "asmx", "ashx"}, common...)
	case strings.Contains(tech, "java"):
		return append([]string{"jsp", "jsf", "do", "action"}, common...)
	case strings.Contains(tech, "python"):
		return append([]string{"py"}, common...)
	}
	return common
}

// threadsFor picks the worker count from the server fingerprint: behind
// cloudflare stay gentle, nginx and apache take more parallelism.
func threadsFor(profile TargetProfile) int {
	if profile.RateLimited {
		return 2
	}
	server := strings.ToLower(profile.Server)
	switch {
	case strings.Contains(server, "cloudflare"):
		return 5
	case strings.Contains(server, "nginx"):
		return 20
	case strings.Contains(server, "apache"):
		return 15
	}
	return 10
}

// wordlistHint picks a wordlist category from the profile.
func wordlistHint(profile TargetProfile) string {
	urlLower := strings.ToLower(profile.URL)
	for _, marker := range []string{"/api", "/v1", "/v2", "/rest", "/graphql"} {
		if strings.Contains(urlLower, marker) {
			return "api"
		}
	}
	switch profile.CMS {
	case "WordPress":
		return "wordpress"
	case "Joomla":
		return "joomla"
	case "Drupal":
		return "drupal"
	}
	return "general"
}

// wafServer reports whether the Server header names protective
// infrastructure that punishes aggressive scanning.
func wafServer(server string) bool {
	s := strings.ToLower(server)
	for _, waf := range []string{"cloudflare", "akamai", "incapsula", "sucuri"} {
		if strings.Contains(s, waf) {
			return true
		}
	}
	return false
}
