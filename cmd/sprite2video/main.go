package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/sprite2video/internal/config"
	"github.com/ivlev/sprite2video/internal/director"
	"github.com/ivlev/sprite2video/internal/document"
	"github.com/ivlev/sprite2video/internal/library"
	"github.com/ivlev/sprite2video/internal/logging"
	"github.com/ivlev/sprite2video/internal/model"
	"github.com/ivlev/sprite2video/internal/system"
)

// Set with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

const (
	scenesDir     = "scenes"
	outputDir     = "output"
	defaultConfig = "sprite2video.yaml"
	libraryPrefix = "lib:"
)

const usage = `Использование: sprite2video <команда> [флаги]

Команды:
  export   отрендерить сцену и закодировать (mp4, mov, mkv, webm, gif, pdf или папка PNG)
  preview  отрендерить сцену и показать в окне
  watch    повторять экспорт при каждом изменении сцены или ее файлов
  action   отрендерить одно действие актера
  init     создать шаблон скрипта сцены
  library  добавить, показать, выгрузить или удалить документы библиотеки

Флаги команды: "sprite2video <команда> -h".
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "export":
		err = runExport(ctx, args)
	case "preview":
		err = runPreview(ctx, args)
	case "watch":
		err = runWatch(ctx, args)
	case "action":
		err = runAction(ctx, args)
	case "init":
		err = runInit(args)
	case "library":
		err = runLibrary(ctx, args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "[-] Неизвестная команда %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[-] Ошибка %s: %v", cmd, err)
	}
}

// options are the flags shared by every rendering command. Flags override
// the config file and S2V_* variables only when given.
type options struct {
	fs         *flag.FlagSet
	configPath *string
	fps        *int
	workers    *int
	encoder    *string
	quality    *int
	scale      *int
	fadeIn     *float64
	fadeOut    *float64
	stats      *bool
	logLevel   *string
	logFile    *string
	libPath    *string
}

func newFlagSet(name string) (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, &options{
		fs:         fs,
		configPath: fs.String("config", "", "Файл конфигурации (по умолчанию: ./"+defaultConfig+", если есть)"),
		fps:        fs.Int("fps", model.DefaultFPS, "Кадров в секунду"),
		workers:    fs.Int("workers", 0, "Потоки рендеринга (0 - по числу CPU)"),
		encoder:    fs.String("encoder", "", "Видеоэнкодер ffmpeg или auto для поиска аппаратного"),
		quality:    fs.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)"),
		scale:      fs.Int("scale", 1, "Увеличение видео без сглаживания (во сколько раз)"),
		fadeIn:     fs.Float64("fade-in", 0, "Появление из черного (сек)"),
		fadeOut:    fs.Float64("fade-out", 0, "Затухание в черный (сек)"),
		stats:      fs.Bool("stats", false, "Вывести отчет о производительности"),
		logLevel:   fs.String("log-level", "", "Уровень логов: debug, info, warn или error"),
		logFile:    fs.String("log-file", "", "Дублировать JSON-логи в файл (с ротацией)"),
		libPath:    fs.String("library", "", "База библиотеки документов"),
	}
}

type app struct {
	cfg *config.Config
	log *zap.Logger
}

// setup resolves the configuration: defaults, config file, environment,
// then explicitly set flags.
func (o *options) setup() (*app, error) {
	cfg := config.Default()
	path := *o.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfig); err == nil {
			path = defaultConfig
		}
	}
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	o.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fps":
			cfg.FPS = *o.fps
		case "workers":
			cfg.Workers = *o.workers
		case "encoder":
			cfg.VideoEncoder = *o.encoder
		case "quality":
			cfg.Quality = *o.quality
		case "scale":
			cfg.Scale = *o.scale
		case "fade-in":
			cfg.FadeIn = *o.fadeIn
		case "fade-out":
			cfg.FadeOut = *o.fadeOut
		case "stats":
			cfg.ShowStats = *o.stats
		case "log-level":
			cfg.Logging.Level = *o.logLevel
		case "log-file":
			cfg.Logging.File = *o.logFile
		case "library":
			cfg.Library = *o.libPath
		}
	})
	// 0 потоков - по числу ядер
	if cfg.Workers == 0 {
		cfg.Workers = config.Default().Workers
	}
	cfg.BuildVersion = buildVersion

	if cfg.VideoEncoder == "" || cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Logging)
	logger.Debug("config resolved",
		zap.String("config", path),
		zap.Int("fps", cfg.FPS),
		zap.Int("workers", cfg.Workers),
		zap.String("encoder", cfg.VideoEncoder))
	return &app{cfg: cfg, log: logger}, nil
}

// loadScene reads a scene script (.yaml), a scene document (.json) or a
// library scene ("lib:<name>"). An empty input picks the newest script in
// scenes/.
func (a *app) loadScene(ctx context.Context, input string) (*model.Scene, string, error) {
	if input == "" {
		latest, err := director.FindLatestScript(scenesDir)
		if err != nil {
			return nil, "", fmt.Errorf("%w. Put a scene script in %s/ or run init", err, scenesDir)
		}
		input = latest
		fmt.Printf("[*] Выбрана сцена: %s\n", input)
	}

	if name, ok := strings.CutPrefix(input, libraryPrefix); ok {
		lib, err := library.Open(a.cfg.Library, a.log)
		if err != nil {
			return nil, "", err
		}
		defer lib.Close()
		s, err := lib.Scene(ctx, name)
		return s, input, err
	}

	switch strings.ToLower(filepath.Ext(input)) {
	case ".yaml", ".yml":
		s, err := director.Load(input, a.log)
		return s, input, err
	case ".json":
		s, err := document.LoadScene(input)
		return s, input, err
	default:
		return nil, "", fmt.Errorf("%s: expected a .yaml script or a .json scene", input)
	}
}

// defaultOutput names an export after the scene with a timestamp.
func defaultOutput(scene *model.Scene, ext string) string {
	name := strings.TrimSuffix(document.FileName(scene.Name), ".json")
	if name == "" {
		name = "scene"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s%s", name, timestamp, ext))
}
