// Command bufpooldemo is an interactive shell for driving a buffer pool
// manually: new/fetch/unpin/flush/delete pages and watch hit/miss/eviction
// behavior. It is a demo harness only — the core packages it wraps expose
// no CLI or wire protocol of their own (§6 of the design doc). Flag and
// logger wiring are grounded on the teacher's cmd/gojodb_server/main.go.
package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/kiraodb/kiradb/core/storage/buffer"
	"github.com/kiraodb/kiradb/core/storage/disk/filedisk"
	"github.com/kiraodb/kiradb/core/storage/page"
	"github.com/kiraodb/kiradb/core/storage/replacer"
	"github.com/kiraodb/kiradb/core/storage/wal"
	"github.com/kiraodb/kiradb/pkg/logger"
)

var (
	poolSize  = flag.Int("pool_size", 16, "number of frames in the buffer pool")
	k         = flag.Int("k", 2, "LRU-K history depth")
	dataFile  = flag.String("data_file", "bufpooldemo.db", "backing page file")
	walFile   = flag.String("wal_file", "bufpooldemo.wal", "write-ahead log file")
	logLevel  = flag.String("log_level", "info", "zap log level")
	rateLimit = flag.Int("rate_limit_bytes", 0, "disk throughput limit in bytes/sec, 0 disables")
)

func main() {
	flag.Parse()

	zlogger, err := logger.New(logger.Config{Level: *logLevel, Format: "console", OutputFile: "stderr"})
	if err != nil {
		fmt.Println("failed to build logger:", err)
		return
	}
	defer zlogger.Sync()

	diskOpts := []filedisk.Option{filedisk.WithLogger(zlogger)}
	if *rateLimit > 0 {
		diskOpts = append(diskOpts, filedisk.WithRateLimit(*rateLimit))
	}
	d, err := filedisk.Open(*dataFile, diskOpts...)
	if err != nil {
		zlogger.Fatal("opening data file", zap.Error(err))
	}
	defer d.Shutdown()

	logMgr, err := wal.Open(*walFile, zlogger)
	if err != nil {
		zlogger.Fatal("opening wal file", zap.Error(err))
	}
	defer logMgr.Close()

	pool := buffer.New(buffer.Config{
		PoolSize: *poolSize,
		K:        *k,
		Disk:     d,
		Log:      logMgr,
		Logger:   zlogger,
	})

	rl, err := readline.New("bufpool> ")
	if err != nil {
		zlogger.Fatal("starting readline", zap.Error(err))
	}
	defer rl.Close()

	guards := map[int64]*buffer.BasicGuard{}

	fmt.Println("bufpooldemo: new | fetch <id> | unpin <id> [dirty] | flush <id> | flushall | delete <id> | quit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "new":
			g, ok := pool.NewPageGuarded()
			if !ok {
				fmt.Println("pool exhausted")
				continue
			}
			guards[int64(g.PageID())] = g
			fmt.Println("allocated page", g.PageID())
		case "fetch":
			id := parseID(fields)
			g, ok := pool.FetchPageBasic(page.ID(id), replacer.AccessGet)
			if !ok {
				fmt.Println("fetch failed: pool exhausted, invalid page id, or read error")
				continue
			}
			guards[id] = g
			fmt.Println("fetched page", id)
		case "unpin":
			id := parseID(fields)
			g, ok := guards[id]
			if !ok {
				fmt.Println("no guard held for", id)
				continue
			}
			if len(fields) > 2 && fields[2] == "dirty" {
				g.MarkDirty()
			}
			g.Drop()
			delete(guards, id)
			fmt.Println("unpinned page", id)
		case "flush":
			id := parseID(fields)
			fmt.Println("flushed:", pool.FlushPage(page.ID(id)))
		case "flushall":
			pool.FlushAllPages()
			fmt.Println("flushed all resident pages")
		case "delete":
			id := parseID(fields)
			fmt.Println("deleted:", pool.DeletePage(page.ID(id)))
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func parseID(fields []string) int64 {
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return -1
	}
	return id
}
