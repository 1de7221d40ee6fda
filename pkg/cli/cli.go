package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// デフォルト値
const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 512
	DefaultPolyphony  = 256
	DefaultGain       = 1.0
	DefaultChannel    = 1
	DefaultBackend    = "ebiten"
	DefaultDuration   = 4 * time.Second
	DefaultLogLevel   = "info"
	MaxPolyphony      = 256
)

// DefaultNotes はオフラインレンダリングで鳴らすノート（Cメジャー）
var DefaultNotes = []int{60, 64, 67}

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	BankDir          string        // バンクディレクトリ（空の場合は実行ファイル横のResources/Soundfonts）
	Bank             string        // 読み込むバンク（表示名またはファイルパス）
	SampleRate       int           // サンプルレート
	BlockSize        int           // ブロックサイズ（フレーム数）
	Polyphony        int           // 最大同時発音数
	Gain             float64       // マスターゲイン
	Channel          int           // デフォルトMIDIチャンネル（1〜16）
	Backend          string        // オーディオバックエンド（ebiten, oto）
	MIDIInput        string        // MIDI入力ポート名（前方一致）
	Output           string        // WAV出力ファイル（指定時はオフラインレンダリング）
	Duration         time.Duration // オフラインレンダリングの長さ
	Notes            []int         // オフラインレンダリングで鳴らすノート
	PressureExponent int           // ブレス補正の指数
	Breath           float64       // ブレス初期値
	BreathSweep      bool          // オフラインレンダリング中にブレスを0から1へ動かす
	BreathCC         int           // ブレスとして扱うコントロールチェンジ番号（-1で無効）
	DualMono         bool          // 左チャンネルのみ合成して右へ複製する
	LogLevel         string        // ログレベル（debug, info, warn, error）
	Timeout          time.Duration // タイムアウト時間（0は無制限）
	ListBanks        bool          // バンク一覧を表示して終了
	ListPorts        bool          // MIDI入力ポート一覧を表示して終了
	ShowHelp         bool          // ヘルプ表示フラグ
	ConfigFile       string        // YAML設定ファイル
}

// FileConfig はYAML設定ファイルの構造。未指定の項目はnilのまま
type FileConfig struct {
	BankDir          *string  `yaml:"bank_dir"`
	Bank             *string  `yaml:"bank"`
	SampleRate       *int     `yaml:"sample_rate"`
	BlockSize        *int     `yaml:"block_size"`
	Polyphony        *int     `yaml:"polyphony"`
	Gain             *float64 `yaml:"gain"`
	Channel          *int     `yaml:"channel"`
	Backend          *string  `yaml:"backend"`
	MIDIInput        *string  `yaml:"midi_in"`
	Output           *string  `yaml:"output"`
	Duration         *float64 `yaml:"duration"`
	Notes            []int    `yaml:"notes"`
	PressureExponent *int     `yaml:"pressure_exponent"`
	Breath           *float64 `yaml:"breath"`
	BreathSweep      *bool    `yaml:"breath_sweep"`
	BreathCC         *int     `yaml:"breath_cc"`
	DualMono         *bool    `yaml:"dual_mono"`
	LogLevel         *string  `yaml:"log_level"`
	Timeout          *int     `yaml:"timeout"`
}

// LoadConfigFile はYAML設定ファイルを読み込む。未知のキーはエラーにする
func LoadConfigFile(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var fc FileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 優先順位: コマンドラインフラグ > 環境変数 > 設定ファイル > デフォルト値
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("sfplayer", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	var durationSec float64
	var notes string
	fs.StringVar(&config.BankDir, "bank-dir", "", "バンクディレクトリ")
	fs.StringVar(&config.BankDir, "d", "", "バンクディレクトリ（短縮形）")
	fs.StringVar(&config.Bank, "bank", "", "バンク名またはパス")
	fs.StringVar(&config.Bank, "b", "", "バンク名またはパス（短縮形）")
	fs.IntVar(&config.SampleRate, "sample-rate", DefaultSampleRate, "サンプルレート")
	fs.IntVar(&config.BlockSize, "block-size", DefaultBlockSize, "ブロックサイズ")
	fs.IntVar(&config.Polyphony, "polyphony", DefaultPolyphony, "最大同時発音数")
	fs.Float64Var(&config.Gain, "gain", DefaultGain, "マスターゲイン")
	fs.IntVar(&config.Channel, "channel", DefaultChannel, "MIDIチャンネル（1〜16）")
	fs.IntVar(&config.Channel, "c", DefaultChannel, "MIDIチャンネル（短縮形）")
	fs.StringVar(&config.Backend, "backend", DefaultBackend, "オーディオバックエンド（ebiten, oto）")
	fs.StringVar(&config.MIDIInput, "midi-in", "", "MIDI入力ポート名")
	fs.StringVar(&config.MIDIInput, "m", "", "MIDI入力ポート名（短縮形）")
	fs.StringVar(&config.Output, "output", "", "WAV出力ファイル")
	fs.StringVar(&config.Output, "o", "", "WAV出力ファイル（短縮形）")
	fs.Float64Var(&durationSec, "duration", DefaultDuration.Seconds(), "レンダリング時間（秒）")
	fs.StringVar(&notes, "notes", "", "ノート番号（カンマ区切り）")
	fs.StringVar(&notes, "n", "", "ノート番号（短縮形）")
	fs.IntVar(&config.PressureExponent, "pressure-exponent", 0, "ブレス補正の指数")
	fs.Float64Var(&config.Breath, "breath", 1.0, "ブレス初期値")
	fs.BoolVar(&config.BreathSweep, "breath-sweep", false, "ブレスを0から1へ動かす")
	fs.IntVar(&config.BreathCC, "breath-cc", -1, "ブレスとして扱うCC番号")
	fs.BoolVar(&config.DualMono, "dual-mono", false, "デュアルモノで合成")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", DefaultLogLevel, "ログレベル（短縮形）")
	fs.BoolVar(&config.ListBanks, "list", false, "バンク一覧を表示")
	fs.BoolVar(&config.ListPorts, "list-ports", false, "MIDI入力ポート一覧を表示")
	fs.StringVar(&config.ConfigFile, "config", "", "YAML設定ファイル")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 明示的に指定されたフラグ（短縮形は正式名に揃える）
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[longName(f.Name)] = true
	})

	// 設定ファイル（明示的なフラグが優先）
	if config.ConfigFile != "" {
		fc, err := LoadConfigFile(config.ConfigFile)
		if err != nil {
			return nil, err
		}
		applyFile(config, fc, set, &timeoutSec, &durationSec, &notes)
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !set["log-level"] {
		if logLevelEnv := os.Getenv("SFPLAYER_LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}
	if !set["timeout"] {
		if timeoutEnv := os.Getenv("SFPLAYER_TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if !set["bank-dir"] {
		if dir := os.Getenv("SFPLAYER_BANK_DIR"); dir != "" {
			config.BankDir = dir
		}
	}
	if !set["backend"] {
		if backend := os.Getenv("SFPLAYER_BACKEND"); backend != "" {
			config.Backend = strings.ToLower(backend)
		}
	}

	// 位置引数（バンク名またはパス）
	if fs.NArg() > 0 && config.Bank == "" {
		config.Bank = fs.Arg(0)
	}

	if notes != "" {
		parsed, err := parseNotes(notes)
		if err != nil {
			return nil, err
		}
		config.Notes = parsed
	}
	if config.Notes == nil {
		config.Notes = append([]int(nil), DefaultNotes...)
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if durationSec <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", durationSec)
	}
	config.Duration = time.Duration(durationSec * float64(time.Second))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate は値の範囲を検証する
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", c.BlockSize)
	}
	if c.Polyphony < 1 || c.Polyphony > MaxPolyphony {
		return fmt.Errorf("polyphony must be between 1 and %d, got %d", MaxPolyphony, c.Polyphony)
	}
	if c.Gain < 0 {
		return fmt.Errorf("gain must be non-negative, got %v", c.Gain)
	}
	if c.Backend != "ebiten" && c.Backend != "oto" {
		return fmt.Errorf("invalid backend: %s (must be ebiten or oto)", c.Backend)
	}
	if c.Channel < 1 || c.Channel > 16 {
		return fmt.Errorf("channel must be between 1 and 16, got %d", c.Channel)
	}
	if c.BreathCC < -1 || c.BreathCC > 127 {
		return fmt.Errorf("breath cc must be between 0 and 127 (or -1), got %d", c.BreathCC)
	}
	if c.PressureExponent < math.MinInt32 || c.PressureExponent > math.MaxInt32 {
		return fmt.Errorf("pressure exponent must fit in 32 bits, got %d", c.PressureExponent)
	}
	return nil
}

// longName は短縮形のフラグ名を正式名に変換する
func longName(name string) string {
	switch name {
	case "d":
		return "bank-dir"
	case "b":
		return "bank"
	case "c":
		return "channel"
	case "m":
		return "midi-in"
	case "o":
		return "output"
	case "n":
		return "notes"
	case "t":
		return "timeout"
	case "l":
		return "log-level"
	case "h":
		return "help"
	}
	return name
}

// applyFile は設定ファイルの値を、フラグで指定されていない項目にだけ反映する
func applyFile(c *Config, fc *FileConfig, set map[string]bool, timeoutSec *int, durationSec *float64, notes *string) {
	setString := func(flag string, dst *string, v *string) {
		if v != nil && !set[flag] {
			*dst = *v
		}
	}
	setInt := func(flag string, dst *int, v *int) {
		if v != nil && !set[flag] {
			*dst = *v
		}
	}
	setFloat := func(flag string, dst *float64, v *float64) {
		if v != nil && !set[flag] {
			*dst = *v
		}
	}
	setBool := func(flag string, dst *bool, v *bool) {
		if v != nil && !set[flag] {
			*dst = *v
		}
	}

	setString("bank-dir", &c.BankDir, fc.BankDir)
	setString("bank", &c.Bank, fc.Bank)
	setInt("sample-rate", &c.SampleRate, fc.SampleRate)
	setInt("block-size", &c.BlockSize, fc.BlockSize)
	setInt("polyphony", &c.Polyphony, fc.Polyphony)
	setFloat("gain", &c.Gain, fc.Gain)
	setInt("channel", &c.Channel, fc.Channel)
	setString("backend", &c.Backend, fc.Backend)
	setString("midi-in", &c.MIDIInput, fc.MIDIInput)
	setString("output", &c.Output, fc.Output)
	setFloat("duration", durationSec, fc.Duration)
	setInt("pressure-exponent", &c.PressureExponent, fc.PressureExponent)
	setFloat("breath", &c.Breath, fc.Breath)
	setBool("breath-sweep", &c.BreathSweep, fc.BreathSweep)
	setInt("breath-cc", &c.BreathCC, fc.BreathCC)
	setBool("dual-mono", &c.DualMono, fc.DualMono)
	setString("log-level", &c.LogLevel, fc.LogLevel)
	setInt("timeout", timeoutSec, fc.Timeout)

	if fc.Notes != nil && !set["notes"] {
		*notes = ""
		c.Notes = append([]int(nil), fc.Notes...)
	}
}

// parseNotes は "60,64,67" 形式のノート列を解析する
func parseNotes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	notes := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("invalid note: %q (must be 0-127)", p)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"--list": true, "-list": true,
	"--list-ports": true, "-list-ports": true,
	"--breath-sweep": true, "-breath-sweep": true,
	"--dual-mono": true, "-dual-mono": true,
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック
			// （-t 5 のような場合。--timeout=5 の形式は次の引数を取らない）
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				if !boolFlags[arg] && !strings.Contains(arg, "=") {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `sfplayer - SoundFont Player

Usage:
  sfplayer [options] [bank]

Arguments:
  bank          バンクの表示名、ファイル名、またはSF2ファイルのパス（省略可）
                省略時はバンクディレクトリの先頭のバンクを使用

Modes:
  --list                      バンク一覧を表示して終了
  --list-ports                MIDI入力ポート一覧を表示して終了
  -o, --output <file.wav>     ノートをオフラインでレンダリングしてWAVに保存
  （指定なし）                オーディオデバイスでリアルタイム再生

Options:
  -d, --bank-dir <dir>        バンクディレクトリ（デフォルト: 実行ファイル横のResources/Soundfonts）
  -b, --bank <name|path>      読み込むバンク
  --sample-rate <hz>          サンプルレート（デフォルト: 44100）
  --block-size <frames>       ブロックサイズ（デフォルト: 512）
  --polyphony <voices>        最大同時発音数 1〜256（デフォルト: 256）
  --gain <value>              マスターゲイン（デフォルト: 1.0）
  -c, --channel <1-16>        MIDIチャンネル（デフォルト: 1）
  --backend <name>            オーディオバックエンド: ebiten, oto（デフォルト: ebiten）
  -m, --midi-in <port>        MIDI入力ポート（名前の前方一致）
  -n, --notes <n,n,...>       レンダリングするノート（デフォルト: 60,64,67）
  --duration <seconds>        レンダリング時間（デフォルト: 4）
  --breath <0-1>              ブレス初期値（デフォルト: 1.0）
  --breath-sweep              レンダリング中にブレスを0から1へ動かす
  --breath-cc <0-127>         指定したCCをブレスとして扱う
  --pressure-exponent <n>     ブレス補正の指数（デフォルト: 0）
  --dual-mono                 左チャンネルのみ合成して右へ複製
  --config <file.yaml>        YAML設定ファイル
  -t, --timeout <seconds>     指定秒数後に終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -h, --help                  このヘルプを表示

Environment Variables:
  SFPLAYER_LOG_LEVEL=<level>  ログレベル
  SFPLAYER_TIMEOUT=<seconds>  タイムアウト時間（秒）
  SFPLAYER_BANK_DIR=<dir>     バンクディレクトリ
  SFPLAYER_BACKEND=<name>     オーディオバックエンド

Examples:
  sfplayer --list                           バンク一覧
  sfplayer "Grand Piano"                    表示名でバンクを指定して再生
  sfplayer -m "Jamboxx" --breath-cc 2       MIDI入力のCC2でブレスを制御
  sfplayer -o out.wav -n 60,67 --breath-sweep  WAVにレンダリング
  sfplayer --timeout 10                     10秒後に自動終了
`)
}
