package mws

import (
	"fmt"
	"strings"
)

var regionEndpoints = map[string]string{
	"US": "https://mws.amazonservices.com",
	"CA": "https://mws.amazonservices.ca",
	"MX": "https://mws.amazonservices.com.mx",
	"BR": "https://mws.amazonservices.com",
	"UK": "https://mws-eu.amazonservices.com",
	"DE": "https://mws-eu.amazonservices.com",
	"FR": "https://mws-eu.amazonservices.com",
	"IT": "https://mws-eu.amazonservices.com",
	"ES": "https://mws-eu.amazonservices.com",
	"IN": "https://mws.amazonservices.in",
	"JP": "https://mws.amazonservices.jp",
	"CN": "https://mws.amazonservices.com.cn",
	"AU": "https://mws.amazonservices.com.au",
}

// EndpointForRegion maps a two-letter region code to its MWS host.
func EndpointForRegion(region string) (string, error) {
	ep, ok := regionEndpoints[strings.ToUpper(strings.TrimSpace(region))]
	if !ok {
		return "", fmt.Errorf("mws: unknown region %q", region)
	}
	return ep, nil
}
