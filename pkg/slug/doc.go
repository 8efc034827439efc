// Package slug derives tenant slugs from display names.
//
// Output is always a candidate DNS label: lowercase ASCII letters, digits and
// single hyphens, at most 63 characters. Accented Latin letters are folded to
// their base letter with golang.org/x/text normalization.
//
//	slug.Make("Café Société")               // "cafe-societe"
//	slug.Make("Acme & Co", slug.CustomReplace(map[string]string{"&": "and"})) // "acme-and-co"
//	slug.Make("Acme", slug.WithSuffix(4))   // "acme-x7g3"
//
// Make does not know about reserved names. The tenant admin CLI passes its
// result through tenant.ValidateSlug before creating a tenant.
package slug
