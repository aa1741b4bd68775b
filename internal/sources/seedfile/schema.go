package seedfile

// Entry is a single bookmark in the seed YAML.
type Entry struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Seed is the root structure of the seed file:
//
//	bookmarks:
//	  - title: Search
//	    url: google.com
type Seed struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}
