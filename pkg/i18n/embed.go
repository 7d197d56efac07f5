package i18n

import (
	"embed"
	"io/fs"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Locales returns the bundled locale files, one <lang>.yaml per language.
func Locales() fs.FS {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}
