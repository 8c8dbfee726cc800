package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/ivlev/sprite2video/internal/director"
	"github.com/ivlev/sprite2video/internal/document"
	"github.com/ivlev/sprite2video/internal/engine"
	"github.com/ivlev/sprite2video/internal/library"
	"github.com/ivlev/sprite2video/internal/preview"
	"github.com/ivlev/sprite2video/internal/renderer"
	"github.com/ivlev/sprite2video/internal/video"
	"github.com/ivlev/sprite2video/internal/watch"
)

func runExport(ctx context.Context, args []string) error {
	fs, opts := newFlagSet("export")
	input := fs.String("in", "", "Скрипт сцены (.yaml), документ сцены (.json) или lib:<имя> (по умолчанию: самый свежий скрипт в scenes/)")
	output := fs.String("out", "", "Путь к результату, формат выбирается по расширению (по умолчанию: output/<сцена>_<время>.mp4)")
	fs.Parse(args)

	a, err := opts.setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	scene, _, err := a.loadScene(ctx, *input)
	if err != nil {
		return err
	}
	out := *output
	if out == "" {
		out = defaultOutput(scene, ".mp4")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	return engine.NewProject(a.cfg, nil, a.log).Export(ctx, scene, out)
}

func runPreview(ctx context.Context, args []string) error {
	fs, opts := newFlagSet("preview")
	input := fs.String("in", "", "Скрипт сцены (.yaml), документ сцены (.json) или lib:<имя>")
	zoom := fs.Int("zoom", 1, "Масштаб окна относительно размера кадра")
	live := fs.Bool("live", false, "Перерисовывать при изменении сцены")
	fs.Parse(args)

	a, err := opts.setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	scene, path, err := a.loadScene(ctx, *input)
	if err != nil {
		return err
	}
	project := engine.NewProject(a.cfg, nil, a.log)
	frames, err := project.Render(ctx, scene)
	if err != nil {
		return err
	}
	player := preview.NewPlayer(frames)

	if *live && !strings.HasPrefix(path, libraryPrefix) {
		w, err := watch.NewWatcher(0, filepath.Dir(path))
		if err != nil {
			return err
		}
		defer w.Close()
		go watch.Loop(ctx, w, a.log, func(string) {
			scene, _, err := a.loadScene(ctx, path)
			if err != nil {
				fmt.Printf("[!] Не удалось перечитать сцену: %v\n", err)
				return
			}
			frames, err := project.Render(ctx, scene)
			if err != nil {
				fmt.Printf("[!] Ошибка рендеринга: %v\n", err)
				return
			}
			player.Replace(frames)
		})
	}

	return preview.Run(player, "sprite2video - "+scene.Name, a.cfg.FPS, *zoom)
}

func runWatch(ctx context.Context, args []string) error {
	fs, opts := newFlagSet("watch")
	input := fs.String("in", "", "Скрипт сцены (.yaml) или документ сцены (.json)")
	output := fs.String("out", "", "Путь к видео, перезаписывается при каждом изменении")
	fs.Parse(args)

	a, err := opts.setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if strings.HasPrefix(*input, libraryPrefix) {
		return fmt.Errorf("watch needs a scene file, not a library scene")
	}
	scene, path, err := a.loadScene(ctx, *input)
	if err != nil {
		return err
	}
	out := *output
	if out == "" {
		out = filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".mp4")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	project := engine.NewProject(a.cfg, nil, a.log)
	if err := project.Export(ctx, scene, out); err != nil {
		fmt.Printf("[!] Ошибка экспорта: %v\n", err)
	}

	w, err := watch.NewWatcher(0, filepath.Dir(path))
	if err != nil {
		return err
	}
	defer w.Close()
	fmt.Printf("[*] Слежение за %s (Ctrl+C для остановки)\n", filepath.Dir(path))

	return watch.Loop(ctx, w, a.log, func(changed string) {
		fmt.Printf("[*] Изменен: %s\n", changed)
		scene, _, err := a.loadScene(ctx, path)
		if err != nil {
			fmt.Printf("[!] Не удалось перечитать сцену: %v\n", err)
			return
		}
		if err := project.Export(ctx, scene, out); err != nil {
			fmt.Printf("[!] Ошибка экспорта: %v\n", err)
		}
	})
}

func runAction(ctx context.Context, args []string) error {
	fs, opts := newFlagSet("action")
	actorPath := fs.String("actor", "", "Документ актера (.json)")
	name := fs.String("name", "", "Имя действия (по умолчанию: первое)")
	output := fs.String("out", "", "Путь к результату (по умолчанию: показать в окне)")
	fs.Parse(args)

	a, err := opts.setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if *actorPath == "" {
		return fmt.Errorf("-actor is required")
	}
	actor, err := document.LoadActor(*actorPath)
	if err != nil {
		return err
	}
	if len(actor.Actions) == 0 {
		return fmt.Errorf("actor %q has no actions", actor.Name)
	}
	action := actor.Actions[0]
	if *name != "" {
		var ok bool
		if action, ok = actor.FindAction(*name); !ok {
			return fmt.Errorf("actor %q has no action %q: %w", actor.Name, *name, director.ErrUnknownAction)
		}
	}

	frames := renderer.PreviewAction(action, a.cfg.FPS)
	fmt.Printf("[*] Действие %s/%s: %d кадров @ %d FPS\n", actor.Name, action.Name, len(frames), a.cfg.FPS)
	if *output == "" {
		return preview.Run(preview.NewPlayer(frames), actor.Name+" - "+action.Name, a.cfg.FPS, 4)
	}

	enc, err := video.ForPath(*output, video.NewFFmpegEncoder(a.cfg))
	if err != nil {
		return err
	}
	if err := enc.Encode(ctx, frames, a.cfg.FPS, *output); err != nil {
		return err
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", *output)
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	output := fs.String("out", "", "Путь к скрипту (по умолчанию: scenes/scene_<время>.yaml)")
	fs.Parse(args)

	out := *output
	if out == "" {
		out = director.GenerateScriptPath(scenesDir)
	}
	if _, err := os.Stat(out); err == nil {
		return fmt.Errorf("%s already exists", out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := director.WriteScript(director.Template(), out); err != nil {
		return err
	}
	fmt.Printf("[+++] Успех! Скрипт сцены сохранен: %s\n", out)
	return nil
}

func runLibrary(ctx context.Context, args []string) error {
	fs, opts := newFlagSet("library")
	kind := fs.String("kind", "", "Тип документа для list/get/rm: actor или scene")
	output := fs.String("out", "", "Файл для get (по умолчанию: <имя>.json)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: sprite2video library [flags] add <file.json>... | list | get <name> | rm <name>")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	a, err := opts.setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	lib, err := library.Open(a.cfg.Library, a.log)
	if err != nil {
		return err
	}
	defer lib.Close()

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return fmt.Errorf("missing library command")
	}
	k := document.Kind(*kind)

	switch rest[0] {
	case "add":
		for _, path := range rest[1:] {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			e, err := lib.Put(ctx, data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			state := "без изменений"
			if e.Changed {
				state = "сохранен"
			}
			fmt.Printf("[+] %s %q %s (%s)\n", e.Kind, e.Name, state, e.ID)
		}
	case "list":
		entries, err := lib.List(ctx, k)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tNAME\tUPDATED\tID")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Kind, e.Name, e.Updated.Local().Format("2006-01-02 15:04"), e.ID)
		}
		return tw.Flush()
	case "get", "rm":
		if len(rest) != 2 || k == "" {
			return fmt.Errorf("%s needs -kind and a name", rest[0])
		}
		if rest[0] == "rm" {
			if err := lib.Delete(ctx, k, rest[1]); err != nil {
				return err
			}
			fmt.Printf("[+] Удален %s %q\n", k, rest[1])
			return nil
		}
		data, err := lib.Get(ctx, k, rest[1])
		if err != nil {
			return err
		}
		out := *output
		if out == "" {
			out = document.FileName(rest[1])
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("[+++] Записан: %s\n", out)
	default:
		fs.Usage()
		return fmt.Errorf("unknown library command %q", rest[0])
	}
	a.log.Debug("library command done", zap.String("command", rest[0]))
	return nil
}
