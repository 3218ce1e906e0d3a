package app

import (
	"log"
	"strings"
)

// normalizeLocalViewer keeps the viewer bound to localhost and returns the
// listen address plus a browser URL. This is a single-operator tool; binding
// to all interfaces would expose an unauthenticated editor.
func normalizeLocalViewer(cfgAddr string) (listenAddr, url string) {
	a := strings.TrimSpace(cfgAddr)

	if strings.HasPrefix(a, ":") {
		a = "127.0.0.1" + a
	}
	if strings.HasPrefix(a, "0.0.0.0:") {
		a = "127.0.0.1:" + strings.TrimPrefix(a, "0.0.0.0:")
	}

	return a, "http://" + a
}

func logBanner(dataDir, cfgPath string) {
	log.Println("────────────────────────────────────────")
	log.Println("Notewatch scope")
	log.Printf(" Data folder : %s", dataDir)
	log.Printf(" Config file : %s", cfgPath)
	log.Println("")
	log.Println(" This process serves ONE notes tree.")
	log.Println(" Different folder/config = different instance.")
	log.Println("────────────────────────────────────────")
}
