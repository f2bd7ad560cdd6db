package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/physics"
)

// TestLoad 使用表驱动测试覆盖配置加载的核心场景
func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		createFile bool
		content    string
		wantErr    bool
		validate   func(t *testing.T, cfg *Config, err error)
	}{
		{
			name:       "正常加载有效YAML",
			createFile: true,
			content: `mode: console
logging:
  level: "debug"
  format: "json"
  file: "gravshift.log"
simulation:
  tick_interval: 20ms
  spawn: [1, 2, 3]
movement:
  gravity: [0, -9.8, 0]
  walkable_floor_z: 0.7
  max_ski_speed: 30
  capsule:
    radius: 0.4
    half_height: 0.9
enemies:
  - name: "sentry"
    team: 2
    position: [10, 0, 1]
inspector:
  enabled: true
  port: 9000
  period: 250ms
`,
			wantErr: false,
			validate: func(t *testing.T, cfg *Config, err error) {
				if cfg.Mode != ModeConsole {
					t.Errorf("Mode = %q, 期望 %q", cfg.Mode, ModeConsole)
				}
				if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
					t.Errorf("Logging = %+v, 期望 debug/json", cfg.Logging)
				}
				if cfg.Logging.File != "gravshift.log" {
					t.Errorf("Logging.File = %q, 期望 %q", cfg.Logging.File, "gravshift.log")
				}
				if cfg.Simulation.TickInterval != 20*time.Millisecond {
					t.Errorf("TickInterval = %v, 期望 20ms", cfg.Simulation.TickInterval)
				}
				if cfg.Simulation.Spawn != (mgl64.Vec3{1, 2, 3}) {
					t.Errorf("Spawn = %v, 期望 (1, 2, 3)", cfg.Simulation.Spawn)
				}
				if cfg.Movement.Gravity != (mgl64.Vec3{0, -9.8, 0}) {
					t.Errorf("Movement.Gravity = %v, 期望 (0, -9.8, 0)", cfg.Movement.Gravity)
				}
				if cfg.Movement.WalkableFloorZ != 0.7 {
					t.Errorf("WalkableFloorZ = %v, 期望 0.7", cfg.Movement.WalkableFloorZ)
				}
				if cfg.Movement.MaxSkiSpeed != 30 {
					t.Errorf("MaxSkiSpeed = %v, 期望 30", cfg.Movement.MaxSkiSpeed)
				}
				if cfg.Movement.Capsule.Radius != 0.4 || cfg.Movement.Capsule.HalfHeight != 0.9 {
					t.Errorf("Capsule = %+v, 期望 0.4/0.9", cfg.Movement.Capsule)
				}
				// 未出现的键保持默认值
				if cfg.Movement.FlatSkiThreshold != physics.DefaultFlatSkiThreshold {
					t.Errorf("FlatSkiThreshold = %v, 期望默认值 %v", cfg.Movement.FlatSkiThreshold, physics.DefaultFlatSkiThreshold)
				}
				if !cfg.Movement.MaintainHorizontalGroundVelocity {
					t.Error("MaintainHorizontalGroundVelocity 应保持默认 true")
				}
				if len(cfg.Enemies) != 1 || cfg.Enemies[0].Name != "sentry" || cfg.Enemies[0].Team != 2 {
					t.Errorf("Enemies = %+v, 期望一个 sentry", cfg.Enemies)
				}
				if cfg.Inspector.Addr() != "127.0.0.1:9000" {
					t.Errorf("Inspector.Addr() = %q, 期望 %q", cfg.Inspector.Addr(), "127.0.0.1:9000")
				}
				if cfg.Inspector.Period != 250*time.Millisecond {
					t.Errorf("Inspector.Period = %v, 期望 250ms", cfg.Inspector.Period)
				}
			},
		},
		{
			name:       "文件不存在",
			createFile: false,
			wantErr:    true,
			validate: func(t *testing.T, cfg *Config, err error) {
				if !os.IsNotExist(err) {
					t.Errorf("期望文件不存在错误，实际: %v", err)
				}
			},
		},
		{
			name:       "YAML格式错误",
			createFile: true,
			content: `movement:
  gravity: [0, 0, -9.8
simulation:
  tick_interval: 16ms
`,
			wantErr: true,
			validate: func(t *testing.T, cfg *Config, err error) {
				if err == nil || !strings.Contains(err.Error(), "yaml") {
					t.Errorf("期望返回YAML解析错误，实际: %v", err)
				}
			},
		},
		{
			name:       "向量长度错误",
			createFile: true,
			content: `movement:
  gravity: [0, -9.8]
`,
			wantErr: true,
		},
		{
			name:       "空文件使用默认配置",
			createFile: true,
			content:    "",
			wantErr:    false,
			validate: func(t *testing.T, cfg *Config, err error) {
				def := Default()
				if cfg.Mode != def.Mode {
					t.Errorf("Mode = %q, 期望默认 %q", cfg.Mode, def.Mode)
				}
				if cfg.Movement != def.Movement {
					t.Errorf("Movement = %+v, 期望默认值", cfg.Movement)
				}
				if cfg.Terrain != def.Terrain {
					t.Errorf("Terrain = %+v, 期望默认值", cfg.Terrain)
				}
			},
		},
		{
			name:       "校验失败",
			createFile: true,
			content: `movement:
  walkable_floor_z: 1.5
`,
			wantErr: true,
			validate: func(t *testing.T, cfg *Config, err error) {
				if !errors.Is(err, physics.ErrInvalidConfig) {
					t.Errorf("期望 ErrInvalidConfig，实际: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			configPath := filepath.Join(tempDir, "config.yaml")

			if tt.createFile {
				if err := os.WriteFile(configPath, []byte(tt.content), 0o644); err != nil {
					t.Fatalf("创建测试配置文件失败: %v", err)
				}
			}

			cfg, err := Load(configPath)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err == nil && cfg == nil {
				t.Fatalf("Load() 返回了 nil 配置")
			}

			if tt.validate != nil {
				tt.validate(t, cfg, err)
			}
		})
	}
}

// TestValidate 测试配置校验规则
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"默认配置合法", func(c *Config) {}, nil},
		{"未知模式", func(c *Config) { c.Mode = "gui" }, ErrInvalid},
		{"tick 间隔为零", func(c *Config) { c.Simulation.TickInterval = 0 }, ErrInvalid},
		{"俯仰角上限过大", func(c *Config) { c.Character.PitchLimit = 90 }, ErrInvalid},
		{"射程为零", func(c *Config) { c.Weapon.Range = 0 }, ErrInvalid},
		{"散布角过大", func(c *Config) { c.Weapon.SpreadDegrees = 120 }, ErrInvalid},
		{"敌人血量为负", func(c *Config) { c.Enemies = []EnemySpawn{{Health: -1}} }, ErrInvalid},
		{"地形过小", func(c *Config) { c.Terrain.Size = 1 }, ErrInvalid},
		{"盒子角点颠倒", func(c *Config) {
			c.Boxes = []BoxSpawn{{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{0, 1, 1}}}
		}, ErrInvalid},
		{"octaves 为零", func(c *Config) { c.Terrain.Octaves = 0 }, ErrInvalid},
		{"inspector 端口非法", func(c *Config) { c.Inspector.Enabled = true; c.Inspector.Port = 70000 }, ErrInvalid},
		{"禁用时忽略 inspector 端口", func(c *Config) { c.Inspector.Port = 70000 }, nil},
		{"胶囊体半径为零", func(c *Config) { c.Movement.Capsule.Radius = 0 }, physics.ErrInvalidConfig},
		{"负的滑雪速度上限", func(c *Config) { c.Movement.MaxSkiSpeed = -1 }, physics.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, 期望 nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, 期望 %v", err, tt.wantErr)
			}
		})
	}
}
