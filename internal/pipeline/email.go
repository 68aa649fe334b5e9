package pipeline

import "strings"

// EmailDomainMatch reports whether an email address belongs to the
// company's website domain. Subdomains match in either direction, so
// hr@mail.acme.com matches acme.com and hr@acme.com matches www.acme.com.
func EmailDomainMatch(email, website string) bool {
	emailDomain := domainOfEmail(email)
	siteDomain := domainOfSite(website)
	if emailDomain == "" || siteDomain == "" {
		return false
	}
	return emailDomain == siteDomain ||
		strings.HasSuffix(emailDomain, "."+siteDomain) ||
		strings.HasSuffix(siteDomain, "."+emailDomain)
}

func domainOfEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func domainOfSite(website string) string {
	d := strings.ToLower(strings.TrimSpace(website))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}
