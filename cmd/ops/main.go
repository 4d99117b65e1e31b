package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tamtam888/TaskMan/internal/config"
	"github.com/tamtam888/TaskMan/internal/ops"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "backup":
		err = cmdBackup(os.Args[2:])
	case "restore":
		err = cmdRestore(os.Args[2:])
	case "drill":
		err = cmdDrill(ctx, os.Args[2:])
	case "inspect":
		err = cmdInspect(ctx, os.Args[2:])
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, os.Args[1], "failed:", err)
		os.Exit(1)
	}
}

func cmdBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dataDir := fs.String("data-dir", config.DefaultDataDir, "path to data directory")
	out := fs.String("out", "", "output archive path (.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		*out = filepath.Join("backups", "taskman-"+ts+".tar.gz")
	}

	if err := ops.BackupDataDir(*dataDir, *out); err != nil {
		return err
	}
	fmt.Println(*out)
	return nil
}

func cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	archive := fs.String("archive", "", "input backup archive (.tar.gz)")
	target := fs.String("target-dir", "taskman-restored", "restore target directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("archive is required")
	}
	return ops.RestoreDataDir(*archive, *target)
}

// drill proves a fresh backup actually restores: archive, unpack into a
// scratch directory, and compare user records through the store.
func cmdDrill(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("drill", flag.ContinueOnError)
	dataDir := fs.String("data-dir", config.DefaultDataDir, "path to data directory")
	workDir := fs.String("work-dir", os.TempDir(), "temporary workspace for drill artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(*workDir, 0o755); err != nil {
		return err
	}
	ts := time.Now().UTC().Format("20060102T150405Z")
	archive := filepath.Join(*workDir, "taskman-drill-"+ts+".tar.gz")
	restoreDir := filepath.Join(*workDir, "taskman-drill-restore-"+ts)

	if err := ops.BackupDataDir(*dataDir, archive); err != nil {
		return err
	}
	if err := ops.RestoreDataDir(archive, restoreDir); err != nil {
		return err
	}
	if err := ops.VerifyRestore(ctx, *dataDir, restoreDir); err != nil {
		return err
	}

	fmt.Println("backup:", archive)
	fmt.Println("restored:", restoreDir)
	return nil
}

func cmdInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	dataDir := fs.String("data-dir", config.DefaultDataDir, "path to data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sums, err := ops.Inspect(ctx, *dataDir)
	if err != nil {
		return err
	}
	for _, s := range sums {
		fmt.Printf("%s\ttasks=%d done=%d score=%d level=%d\n", s.Email, s.Tasks, s.Completed, s.Score, s.Level)
	}
	return nil
}

func printUsage() {
	fmt.Println("usage:")
	fmt.Println("  taskman-ops backup  --data-dir ~/.taskman --out backups/backup.tar.gz")
	fmt.Println("  taskman-ops restore --archive backups/backup.tar.gz --target-dir taskman-restored")
	fmt.Println("  taskman-ops drill   --data-dir ~/.taskman --work-dir /tmp")
	fmt.Println("  taskman-ops inspect --data-dir ~/.taskman")
}
