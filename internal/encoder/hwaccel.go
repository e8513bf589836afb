package encoder

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// HWAccelType represents a hardware acceleration type
type HWAccelType string

const (
	HWAccelNone         HWAccelType = "none"         // Software encoding (libx264)
	HWAccelAuto         HWAccelType = "auto"         // Auto-detect best available
	HWAccelNVENC        HWAccelType = "nvenc"        // NVIDIA NVENC
	HWAccelQSV          HWAccelType = "qsv"          // Intel Quick Sync Video
	HWAccelVAAPI        HWAccelType = "vaapi"        // VA-API (AMD, Intel, older hardware)
	HWAccelVulkan       HWAccelType = "vulkan"       // Vulkan Video
	HWAccelVideoToolbox HWAccelType = "videotoolbox" // Apple VideoToolbox (macOS)
)

var accelTypes = []HWAccelType{HWAccelAuto, HWAccelNone, HWAccelNVENC, HWAccelQSV, HWAccelVAAPI, HWAccelVulkan, HWAccelVideoToolbox}

// AccelNames lists the accepted --encoder values.
func AccelNames() []string {
	names := make([]string, len(accelTypes))
	for i, t := range accelTypes {
		names[i] = string(t)
	}
	return names
}

// ParseHWAccel validates a --encoder value.
func ParseHWAccel(s string) (HWAccelType, bool) {
	want := HWAccelType(strings.ToLower(s))
	for _, t := range accelTypes {
		if t == want {
			return t, true
		}
	}
	return "", false
}

// HWEncoder represents a detected hardware encoder
type HWEncoder struct {
	Name        string      // Encoder name (e.g., "h264_nvenc")
	Type        HWAccelType // Hardware acceleration type
	Available   bool        // Whether hardware is present and working
	Description string      // Human-readable description
}

// encoderSpec defines a hardware encoder configuration for priority lists
type encoderSpec struct {
	name      string
	accelType HWAccelType
	desc      string
}

// linuxEncoderPriority defines the encoder preference order for Linux
// Priority: nvenc > qsv > vaapi > vulkan > software
// VAAPI is preferred over Vulkan as it has broader hardware support (AMD, Intel, older Intel)
var linuxEncoderPriority = []encoderSpec{
	{"h264_nvenc", HWAccelNVENC, "NVIDIA NVENC"},
	{"h264_qsv", HWAccelQSV, "Intel Quick Sync Video"},
	{"h264_vaapi", HWAccelVAAPI, "VA-API"},
	{"h264_vulkan", HWAccelVulkan, "Vulkan Video"},
}

// macOSEncoderPriority defines the encoder preference order for macOS
// Priority: videotoolbox > software
var macOSEncoderPriority = []encoderSpec{
	{"h264_videotoolbox", HWAccelVideoToolbox, "Apple VideoToolbox"},
}

// vaapiDevice is the render node used for VA-API encoding.
const vaapiDevice = "/dev/dri/renderD128"

// probeTimeout bounds each trial encode during detection.
const probeTimeout = 10 * time.Second

// deviceArgs returns the global options that create the hardware device and
// the filter chain that moves RGBA frames onto it.
func deviceArgs(accel HWAccelType) (global []string, filter string) {
	switch accel {
	case HWAccelVAAPI:
		return []string{"-vaapi_device", vaapiDevice}, "format=nv12,hwupload"
	case HWAccelVulkan:
		return []string{"-init_hw_device", "vulkan=vk", "-filter_hw_device", "vk"}, "format=nv12,hwupload"
	case HWAccelQSV:
		return nil, "format=nv12"
	default:
		return nil, "format=yuv420p"
	}
}

// parseEncoderList extracts encoder names from `ffmpeg -encoders` output.
// Listing lines look like " V....D libx264   libx264 H.264 / AVC ...".
func parseEncoderList(output string) map[string]bool {
	names := make(map[string]bool)
	inList := false
	for _, line := range strings.Split(output, "\n") {
		// The legend ends at a lone " ------" separator line
		if !inList {
			inList = strings.HasPrefix(strings.TrimSpace(line), "---")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && len(fields[0]) == 6 {
			names[fields[1]] = true
		}
	}
	return names
}

// testEncoderAvailable performs a full encoder capability test by encoding a
// few frames of a synthetic source. This catches cases where an encoder is
// compiled in but the hardware behind it is missing or unusable.
func testEncoderAvailable(ffmpegPath string, spec encoderSpec) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	global, filter := deviceArgs(spec.accelType)
	args := append([]string{"-hide_banner", "-v", "quiet"}, global...)
	args = append(args,
		"-f", "lavfi", "-i", "color=c=black:s=256x144:r=30",
		"-frames:v", "3",
		"-vf", filter,
		"-c:v", spec.name,
		"-f", "null", "-",
	)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Env = append(cmd.Environ(), "LIBVA_MESSAGING_LEVEL=0")
	return cmd.Run() == nil
}

// DetectHWEncoders probes for available hardware encoders
// Returns a list of detected encoders in priority order
func DetectHWEncoders() []HWEncoder {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil
	}

	var out bytes.Buffer
	list := exec.Command(ffmpegPath, "-hide_banner", "-encoders")
	list.Stdout = &out
	if err := list.Run(); err != nil {
		return nil
	}
	compiled := parseEncoderList(out.String())

	// Select encoder list based on OS
	var priority []encoderSpec

	switch runtime.GOOS {
	case "darwin":
		priority = macOSEncoderPriority
	default: // Linux and others
		priority = linuxEncoderPriority
	}

	var encoders []HWEncoder
	for _, spec := range priority {
		encoder := HWEncoder{
			Name:        spec.name,
			Type:        spec.accelType,
			Description: spec.desc,
		}
		if compiled[spec.name] {
			encoder.Available = testEncoderAvailable(ffmpegPath, spec)
		}
		encoders = append(encoders, encoder)
	}

	return encoders
}

// SelectBestEncoder returns the best available encoder based on priority
// If requestedType is HWAccelAuto, it selects the first available hardware encoder
// If requestedType is HWAccelNone, it returns nil (use software)
// Otherwise, it attempts to use the requested type if available
func SelectBestEncoder(requestedType HWAccelType) *HWEncoder {
	if requestedType == HWAccelNone || requestedType == "" {
		return nil
	}
	return selectEncoder(requestedType, DetectHWEncoders())
}

func selectEncoder(requestedType HWAccelType, encoders []HWEncoder) *HWEncoder {
	if requestedType == HWAccelAuto {
		for i := range encoders {
			if encoders[i].Available {
				return &encoders[i]
			}
		}
		return nil // No hardware available, fall back to software
	}

	for i := range encoders {
		if encoders[i].Type == requestedType {
			if encoders[i].Available {
				return &encoders[i]
			}
			return nil // Requested type not available
		}
	}

	return nil // Requested type not found
}

// GetEncoderStatus returns a human-readable status of all hardware encoders
func GetEncoderStatus() string {
	encoders := DetectHWEncoders()

	var sb strings.Builder
	sb.WriteString("Hardware Encoder Status:\n")

	for _, enc := range encoders {
		status := "not available"
		if enc.Available {
			status = "available"
		}
		sb.WriteString("  ")
		sb.WriteString(enc.Description)
		sb.WriteString(" (")
		sb.WriteString(enc.Name)
		sb.WriteString("): ")
		sb.WriteString(status)
		sb.WriteString("\n")
	}

	return sb.String()
}
