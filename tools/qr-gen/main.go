// Command qr-gen renders a printable QR code pointing at the bot, for
// the front desk.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

func main() {
	var (
		username = flag.String("bot", getenv("BOT_USERNAME", ""), "bot username without @")
		output   = flag.String("out", "qr_code.png", "output PNG path")
		size     = flag.Int("size", 512, "image size in pixels")
	)
	flag.Parse()

	name := strings.TrimPrefix(strings.TrimSpace(*username), "@")
	if name == "" {
		fatal("BOT_USERNAME is required")
	}

	link := "https://t.me/" + name
	if err := qrcode.WriteFile(link, qrcode.High, *size, *output); err != nil {
		fatal(err.Error())
	}

	fmt.Printf("✅ QR-код создан: %s\n", *output)
	fmt.Printf("📱 Ссылка: %s\n", link)
	fmt.Println("\n💡 Распечатайте QR-код и разместите на ресепшене!")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
