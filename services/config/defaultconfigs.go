package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (selected with --device)
// Val: YAML defaults for that device; a config file and HWPANEL_* variables
// are layered on top.
// -----------------------------------------------------------------------------

const cfgSim = `
display:
  width: 320
  height: 240
  brightness: 80
  touch_threshold: 0
  calibration:
    enabled: false
    min_x: 0
    max_x: 4095
    min_y: 0
    max_y: 4095
    swap_xy: false
render:
  fps: 30
  lock_timeout: 100ms
touch:
  period: 20ms
  debounce: 150ms
  widget_debounce: 200ms
telemetry:
  url: http://127.0.0.1:8085/metrics
  interval: 1s
  poll_period: 20ms
  stale_timeout: 5s
  request_timeout: 800ms
  failure_threshold: 5
  cores: 16
  upward_factor: 0.6
  downward_factor: 0.25
network:
  probe_url: ""
  retries: 5
  retry_delay: 1s
  insecure_skip_verify: false
time:
  url: ""
  retries: 5
  base_delay: 500ms
  jitter_max: 250ms
  min_year: 2024
watchdog:
  enabled: true
  timeout: 5s
  check_period: 500ms
transition:
  timeout: 1s
admin:
  enabled: true
  addr: 127.0.0.1:8788
heartbeat:
  interval: 10s
logging:
  level: info
  format: console
  time_format: "15:04:05"
  screen_lines: 12
`

// cfgDesk is a larger 480x320 panel next to a workstation.
const cfgDesk = `
display:
  width: 480
  height: 320
  brightness: 60
  touch_threshold: 200
  calibration:
    enabled: true
    min_x: 200
    max_x: 3900
    min_y: 240
    max_y: 3800
    swap_xy: true
render:
  fps: 30
  lock_timeout: 100ms
touch:
  period: 15ms
  debounce: 150ms
  widget_debounce: 200ms
telemetry:
  url: http://192.168.1.10:8085/metrics
  interval: 1s
  poll_period: 20ms
  stale_timeout: 5s
  request_timeout: 800ms
  failure_threshold: 5
  cores: 32
  upward_factor: 0.7
  downward_factor: 0.2
network:
  probe_url: ""
  retries: 10
  retry_delay: 2s
  insecure_skip_verify: false
time:
  url: http://192.168.1.10:8085/
  retries: 6
  base_delay: 500ms
  jitter_max: 500ms
  min_year: 2024
watchdog:
  enabled: true
  timeout: 8s
  check_period: 500ms
transition:
  timeout: 1s
admin:
  enabled: true
  addr: 0.0.0.0:8080
heartbeat:
  interval: 30s
logging:
  level: debug
  format: console
  time_format: "15:04:05"
  screen_lines: 16
`

var embeddedConfigs = map[string][]byte{
	"sim":  []byte(cfgSim),
	"desk": []byte(cfgDesk),
}
