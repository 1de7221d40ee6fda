package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/zurustar/sfplayer/pkg/bank"
	"github.com/zurustar/sfplayer/pkg/cli"
	"github.com/zurustar/sfplayer/pkg/engine"
	"github.com/zurustar/sfplayer/pkg/fileutil"
	"github.com/zurustar/sfplayer/pkg/logger"
	"github.com/zurustar/sfplayer/pkg/midi"
	"github.com/zurustar/sfplayer/pkg/player"
	"go.uber.org/zap"
)

// ErrNoBank is returned when no bank was named and none could be found.
var ErrNoBank = errors.New("no bank available")

// EngineFactory creates the synthesis engine. fsys is nil when bank paths
// refer to the host file system.
type EngineFactory func(fsys fileutil.FileSystem, config *cli.Config) engine.Engine

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config    *cli.Config
	log       *zap.Logger
	embedFS   fs.FS
	out       io.Writer
	newEngine EngineFactory

	location *BankLocation
	registry *bank.Registry
	player   *player.Player
}

// New Applicationを作成。embedFSはsoundfontsディレクトリを含む埋め込みFS（nil可）
func New(embedFS fs.FS) *Application {
	return &Application{
		embedFS:   embedFS,
		out:       os.Stdout,
		newEngine: newMelty,
	}
}

func newMelty(fsys fileutil.FileSystem, config *cli.Config) engine.Engine {
	opts := []engine.MeltyOption{
		engine.WithSampleRate(float64(config.SampleRate)),
		engine.WithPolyphony(config.Polyphony),
	}
	if fsys != nil {
		opts = append(opts, engine.WithFileSystem(fsys))
	}
	return engine.NewMelty(opts...)
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started")

	if app.config.ListPorts {
		return app.listPorts()
	}

	// 3. バンクディレクトリの走査
	if err := app.openRegistry(); err != nil {
		return fmt.Errorf("failed to open bank directory: %w", err)
	}

	if app.config.ListBanks {
		return app.listBanks()
	}

	// 4. プレイヤーの作成とバンクの読み込み
	app.newPlayer()
	defer func() {
		if err := app.player.Close(); err != nil {
			app.log.Warn("Failed to close player", zap.Error(err))
		}
	}()

	if err := app.loadBank(); err != nil {
		return fmt.Errorf("failed to load bank: %w", err)
	}

	app.log.Info("Bank loaded",
		zap.String("name", app.player.LoadedBankName()),
		zap.String("path", app.player.LoadedBank()))

	// 5. レンダリング（WAV出力またはリアルタイム再生）
	if app.config.Output != "" {
		if err := app.renderOffline(); err != nil {
			return fmt.Errorf("failed to render: %w", err)
		}
	} else {
		if err := app.runRealtime(); err != nil {
			return fmt.Errorf("failed to play: %w", err)
		}
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// openRegistry バンクディレクトリを探して走査する。見つからない場合はregistryがnilのまま
func (app *Application) openRegistry() error {
	defaultDir, err := bank.DefaultDirectory()
	if err != nil {
		app.log.Debug("Default bank directory unavailable", zap.Error(err))
	}

	app.location = findBanks(app.embedFS, app.config.BankDir, defaultDir)
	if app.location == nil {
		app.log.Info("No bank directory found")
		return nil
	}

	registry, err := bank.NewRegistry(app.location.FileSystem, app.location.Dir)
	if err != nil {
		return err
	}
	app.registry = registry

	app.log.Info("Bank directory scanned",
		zap.String("dir", app.location.Dir),
		zap.Bool("embedded", app.location.IsEmbedded),
		zap.Int("count", len(registry.Banks())))
	return nil
}

// listBanks バンク一覧を表示
func (app *Application) listBanks() error {
	if app.registry == nil {
		return ErrNoBank
	}
	for _, b := range app.registry.Banks() {
		if b.Info != nil && b.Title() != b.Name {
			fmt.Fprintf(app.out, "%s\t(%s, SoundFont %s)\n", b.Name, b.Title(), b.Info.Version)
			continue
		}
		fmt.Fprintln(app.out, b.Name)
	}
	return nil
}

// listPorts MIDI入力ポート一覧を表示
func (app *Application) listPorts() error {
	ports, err := midi.Ports()
	if err != nil {
		return err
	}
	for _, p := range ports {
		fmt.Fprintln(app.out, p)
	}
	return nil
}

// newPlayer 設定からプレイヤーを作成
func (app *Application) newPlayer() {
	// ディスク上のファイルが指定された場合は埋め込みFSを使わない
	var fsys fileutil.FileSystem
	if app.location != nil && app.location.IsEmbedded && !isBankFile(app.config.Bank) {
		fsys = app.location.FileSystem
	}

	opts := []player.Option{
		player.WithLogger(app.log),
		player.WithChannel(app.config.Channel),
		player.WithPolyphony(app.config.Polyphony),
		player.WithGain(float32(app.config.Gain)),
		player.WithPressureExponent(int32(app.config.PressureExponent)),
		player.WithBreathController(app.config.BreathCC),
	}
	if app.registry != nil {
		opts = append(opts, player.WithResolver(app.registry))
	}
	if app.config.DualMono {
		opts = append(opts, player.WithDualMono())
	}

	app.player = player.New(app.newEngine(fsys, app.config), opts...)
	app.player.SetBreathControl(app.config.Breath)
}

// loadBank 指定されたバンク（省略時は先頭のバンク）を読み込む
func (app *Application) loadBank() error {
	name := app.config.Bank

	if name != "" && isBankFile(name) {
		_, err := app.player.LoadBank(name)
		return err
	}

	if app.registry == nil {
		return ErrNoBank
	}

	if name == "" {
		banks := app.registry.Banks()
		if len(banks) == 0 {
			return ErrNoBank
		}
		_, err := app.player.LoadBank(banks[0].Path)
		return err
	}

	_, err := app.player.LoadNamedBank(name)
	return err
}
