package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"sdcard/database"
	"sdcard/imageprocessor"
	"sdcard/imageprocessor/opencv"
	"sdcard/logging"
	"sdcard/scanner"
	"sdcard/signalhandler"
	"sdcard/storage"
	"sdcard/types"
	"sdcard/utils"
)

// config holds the settings shared by every command
type config struct {
	args      map[string]string
	layout    *storage.Layout
	dbPath    string
	debugMode bool
}

func main() {
	ctx, cancel := signalhandler.SetupHandler()

	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	args := utils.ParseArguments(os.Args[1:])

	command, hasCommand := args["command"]
	if !hasCommand {
		utils.PrintUsage()
		os.Exit(1)
	}

	root := utils.GetDefaultRoot()
	if customRoot, ok := args["root"]; ok && customRoot != "" {
		root = customRoot
	}

	pkg := utils.DefaultPackage
	if customPkg, ok := args["package"]; ok && customPkg != "" {
		pkg = customPkg
	}

	mediaRoots := utils.DefaultMediaRoots
	if roots, ok := args["media-roots"]; ok {
		mediaRoots = utils.SplitList(roots)
	}

	dbPath := utils.GetDefaultDatabasePath(root)
	if customDB, ok := args["database"]; ok && customDB != "" {
		dbPath = customDB
	} else if customDB, ok := args["db"]; ok && customDB != "" {
		// Allow --db as an alias for --database
		dbPath = customDB
	}

	_, debugMode := args["debug"]
	if logPath, ok := utils.GetLogFilePath(args); ok {
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Logging to: %s\n", logPath)
		}
	}

	cfg := &config{
		args:      args,
		layout:    storage.NewLayout(root, pkg, mediaRoots),
		dbPath:    dbPath,
		debugMode: debugMode,
	}

	err := run(ctx, command, cfg)
	cancel()
	logging.CloseLogger()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config) error {
	if err := cfg.layout.EnsureDirs(); err != nil {
		return err
	}

	switch command {
	case "dirs":
		return handleDirsCommand(cfg)
	case "cache":
		return handleCacheCommand(cfg)
	case "show":
		return handleShowCommand(ctx, cfg)
	case "history":
		return handleHistoryCommand(cfg)
	case "save":
		return handleSaveCommand(cfg)
	case "list":
		return handleListCommand(cfg)
	case "read":
		return handleReadCommand(cfg)
	case "delete":
		return handleDeleteCommand(cfg)
	case "scan":
		return handleScanCommand(ctx, cfg)
	default:
		utils.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func handleDirsCommand(cfg *config) error {
	layout := cfg.layout
	fmt.Printf("Is SD card inserted: %v\n", layout.IsRemovableMounted())

	printDirs("Files directories", layout.FilesDirs())
	printDirs("Cache directories", layout.CacheDirs())
	printDirs("Media directories", layout.MediaDirs())

	volumes, err := layout.Volumes()
	if err != nil {
		return fmt.Errorf("cannot list volumes: %w", err)
	}
	if len(volumes) > 0 {
		fmt.Println("\nRemovable volumes:")
		for _, v := range volumes {
			fmt.Printf("- %s (%s, %s): %s free of %s\n",
				v.MountPoint, v.Device, v.FSType, formatBytes(v.FreeBytes), formatBytes(v.TotalBytes))
		}
	}
	return nil
}

func handleCacheCommand(cfg *config) error {
	dirs := cfg.layout.CacheDirs()
	fmt.Println("Cache directories:")
	for i, dir := range dirs {
		state := "missing"
		if entries, err := os.ReadDir(dir); err == nil {
			state = fmt.Sprintf("%d entries", len(entries))
		}
		label := "primary"
		if i > 0 {
			label = "removable"
		}
		fmt.Printf("%d. %s [%s, %s]\n", i+1, dir, label, state)
	}
	return nil
}

func handleShowCommand(ctx context.Context, cfg *config) error {
	var src imageprocessor.Source
	if imagePath, ok := cfg.args["image"]; ok && imagePath != "" {
		src = imageprocessor.FileSource{Path: imagePath}
	}

	width, err := utils.ParseDisplayWidth(cfg.args["reqsize"])
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	var dec imageprocessor.Decoder
	switch cfg.args["decoder"] {
	case "", "go":
		dec = imageprocessor.NewGoDecoder()
	case "opencv":
		dec = opencv.NewDecoder()
	default:
		return fmt.Errorf("unknown decoder: %s", cfg.args["decoder"])
	}

	sampled, err := imageprocessor.ShowImage(ctx, src, imageprocessor.GoProber{}, imageprocessor.FixedDisplay{Width: width}, dec)
	if err != nil {
		if errors.Is(err, imageprocessor.ErrNoSelection) {
			fmt.Println("No image selected (use --image=PATH)")
		}
		return err
	}

	outPath := filepath.Join(cfg.layout.CacheDir(), "preview.jpg")
	if customOut, ok := cfg.args["out"]; ok && customOut != "" {
		outPath = customOut
	}
	if err := imageprocessor.WritePreview(sampled.Image, outPath, imageprocessor.DefaultPreviewQuality); err != nil {
		return err
	}

	fmt.Printf("Image: %s\n", sampled.Source)
	fmt.Printf("Original size: %dx%d\n", sampled.Bounds.Width, sampled.Bounds.Height)
	fmt.Printf("Display width: %d\n", width)
	fmt.Printf("inSampleSize: %d\n", sampled.Factor)
	fmt.Printf("Decoded size: %dx%d\n", sampled.Decoded.Width, sampled.Decoded.Height)
	fmt.Printf("Preview: %s\n", outPath)

	db, err := database.InitDatabase(cfg.dbPath)
	if err != nil {
		logging.LogWarning("View not recorded, cannot open database: %v", err)
		return nil
	}
	defer db.Close()

	if _, err := database.RecordView(db, types.ViewRecord{
		Path:          sampled.Source,
		Width:         sampled.Bounds.Width,
		Height:        sampled.Bounds.Height,
		Factor:        sampled.Factor,
		DecodedWidth:  sampled.Decoded.Width,
		DecodedHeight: sampled.Decoded.Height,
	}); err != nil {
		logging.LogWarning("View not recorded: %v", err)
	}
	return nil
}

func handleHistoryCommand(cfg *config) error {
	limit, err := utils.ParseLimit(cfg.args["limit"], utils.DefaultHistoryLimit)
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	db, err := database.InitDatabase(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	views, err := database.RecentViews(db, limit)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println("No images shown yet.")
		return nil
	}

	fmt.Println("Recently shown images:")
	for i, v := range views {
		fmt.Printf("%d. %s\n", i+1, v.Path)
		fmt.Printf("   %dx%d -> %dx%d (inSampleSize %d) at %s\n",
			v.Width, v.Height, v.DecodedWidth, v.DecodedHeight, v.Factor, v.ViewedAt)
	}

	stats, err := database.GetMediaStats(db)
	if err == nil && stats.TotalImages > 0 {
		fmt.Printf("\nIndexed media: %d images, %d need subsampling, %s total\n",
			stats.TotalImages, stats.SampledImages, formatBytes(uint64(stats.TotalBytes)))
	}
	return nil
}

func privateStore(cfg *config) (*storage.PrivateStore, error) {
	return storage.NewPrivateStore(cfg.layout.FilesDir())
}

func requireName(cfg *config) (string, error) {
	name, ok := cfg.args["name"]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: missing --name", storage.ErrInvalidName)
	}
	return name, nil
}

func handleSaveCommand(cfg *config) error {
	name, err := requireName(cfg)
	if err != nil {
		return err
	}
	store, err := privateStore(cfg)
	if err != nil {
		return err
	}

	saved, err := store.Save(name, cfg.args["content"])
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s (%d bytes) to %s\n", saved.Name, saved.Size, saved.Path)
	return nil
}

func handleListCommand(cfg *config) error {
	store, err := privateStore(cfg)
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("No files in %s\n", store.Dir())
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func handleReadCommand(cfg *config) error {
	name, err := requireName(cfg)
	if err != nil {
		return err
	}
	store, err := privateStore(cfg)
	if err != nil {
		return err
	}

	content, err := store.Load(name)
	if err != nil {
		return err
	}
	fmt.Println(content)
	return nil
}

func handleDeleteCommand(cfg *config) error {
	name, err := requireName(cfg)
	if err != nil {
		return err
	}
	store, err := privateStore(cfg)
	if err != nil {
		return err
	}

	if err := store.Delete(name); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", name)
	return nil
}

func handleScanCommand(ctx context.Context, cfg *config) error {
	var folders []string
	if folder, ok := cfg.args["folder"]; ok && folder != "" {
		info, err := os.Stat(folder)
		if err != nil {
			return fmt.Errorf("cannot access folder path %s: %w", folder, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("path is not a directory: %s", folder)
		}
		folders = []string{folder}
	} else {
		for _, dir := range cfg.layout.MediaDirs() {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				folders = append(folders, dir)
			}
		}
	}

	width, err := utils.ParseDisplayWidth(cfg.args["reqsize"])
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	_, forceRewrite := cfg.args["force"]

	db, err := database.InitDatabase(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	registry := imageprocessor.NewImageLoaderRegistry(true)
	defer registry.Close()

	summary, err := scanner.ScanMedia(ctx, db, registry, scanner.ScanOptions{
		Folders:      folders,
		ForceRewrite: forceRewrite,
		DebugMode:    cfg.debugMode,
		DisplayWidth: width,
		MaxWorkers:   signalhandler.GetOptimalProcs(),
	})
	if err != nil {
		return fmt.Errorf("scan interrupted after %d images: %w", summary.Processed, err)
	}
	fmt.Printf("Database: %s\n", cfg.dbPath)
	return nil
}

func printDirs(title string, dirs []string) {
	fmt.Printf("%s:\n", title)
	for i, dir := range dirs {
		fmt.Printf("  %d. %s\n", i+1, dir)
	}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
