// Package types defines the Bin entity, the Backend persistence interface,
// configuration, and the standard errors for the wastebin registry.
package types
