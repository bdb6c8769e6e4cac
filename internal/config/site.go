package config

// SiteConfig holds per-host overrides for crawl behavior. Some sites
// need an auth cookie or extra headers to expose their content, and
// some have URL subtrees that are pointless to mirror.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with requests to this host.
	// Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are URL path globs to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to matching URL paths when set.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .mdcrawl configuration file.
type File struct {
	// Hosts maps host names (e.g. "docs.example.com") to overrides.
	Hosts map[string]SiteConfig `yaml:"hosts,omitempty"`

	// Defaults applies to every host unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// ForHost returns the merged configuration for a host: defaults with
// host-specific values layered on top.
func (cf *File) ForHost(host string) SiteConfig {
	result := cf.Defaults

	site, ok := cf.Hosts[host]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		// Copy so the merge never mutates the shared defaults.
		merged := make(map[string]string, len(result.Headers)+len(site.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range site.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	return result
}
