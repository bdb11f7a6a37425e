// Command export-clients dumps the registered client base to a CSV
// file suitable for import into the YClients client list.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mesto-barbershop/notifybot/internal/storage"
	"github.com/mesto-barbershop/notifybot/libs/db"
)

func main() {
	var (
		dbURL  = flag.String("database-url", getenv("DATABASE_URL", ""), "postgres connection string")
		output = flag.String("out", "", "output path (default clients_export_<timestamp>.csv)")
	)
	flag.Parse()

	if *dbURL == "" {
		fatal("DATABASE_URL is required")
	}
	path := *output
	if path == "" {
		path = fmt.Sprintf("clients_export_%s.csv", time.Now().Format("20060102_150405"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, *dbURL)
	if err != nil {
		fatal(err.Error())
	}
	defer pool.Close()

	repo := storage.NewClientsRepository(pool)
	clients, err := repo.ListAll(ctx)
	if err != nil {
		fatal(err.Error())
	}
	if len(clients) == 0 {
		fmt.Println("📭 Пока нет сохранённых клиентов.")
		return
	}

	f, err := os.Create(path)
	if err != nil {
		fatal(err.Error())
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Телефон", "Имя", "Фамилия", "Telegram ID", "Дата регистрации"}); err != nil {
		fatal(err.Error())
	}
	for _, c := range clients {
		row := []string{
			c.Phone,
			c.FirstName,
			c.LastName,
			strconv.FormatInt(c.TelegramID, 10),
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			fatal(err.Error())
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fatal(err.Error())
	}

	fmt.Printf("✅ Экспортировано %d клиентов\n", len(clients))
	fmt.Printf("📁 Файл: %s\n", path)
	fmt.Println("\n💡 Файл можно импортировать в YClients через раздел «Клиенты» → «Импорт».")

	total, today, err := repo.Stats(ctx)
	if err == nil {
		fmt.Printf("\n📊 Статистика:\n   Всего клиентов: %d\n   Новых сегодня: %d\n", total, today)
	}
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
