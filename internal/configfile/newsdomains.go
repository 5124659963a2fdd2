package configfile

import "encoding/json"

// NewsDomainSet is the static allowlist of link domains counted as news
// sources for the top-news-cards aggregate, loaded from
// news_domains.json.
type NewsDomainSet map[string]struct{}

// UnmarshalJSON accepts a plain JSON array of domain strings.
func (s *NewsDomainSet) UnmarshalJSON(data []byte) error {
	var domains []string
	if err := json.Unmarshal(data, &domains); err != nil {
		return err
	}
	set := make(NewsDomainSet, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}
	*s = set
	return nil
}

// DefaultNewsDomainSet is used when news_domains.json is absent.
func DefaultNewsDomainSet() NewsDomainSet {
	return NewsDomainSet{}
}
