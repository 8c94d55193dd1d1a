package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/concave-dev/ceph-sentinel/internal/resources"
	"github.com/stretchr/testify/assert"
)

func TestReportSubject(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindHealthy, "HEALTHY - LAB Ceph Sentinel"},
		{KindReboot, "WARNING - LAB Ceph Sentinel"},
		{KindIdleConfirmed, "INFO NO Client IO - LAB Ceph Sentinel"},
		{KindIdleUnresolved, "WARNING - LAB Ceph Sentinel"},
		{KindSourceUnavailable, "CRITICAL - LAB Ceph Sentinel"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := Report{Kind: tt.kind, Location: "LAB"}
			assert.Equal(t, tt.want, r.Subject("Ceph Sentinel"))
		})
	}
}

func TestReportBody_Healthy(t *testing.T) {
	r := Report{
		Kind:   KindHealthy,
		RunID:  "run-1",
		Cycles: 1,
		Lines: []string{
			"client io 12 kB/s wr, 3 op/s",
			"No client io detected",
		},
		Host: &resources.HostSnapshot{Hostname: "mon-a", CPUCores: 4},
	}

	body := r.Body()
	lines := strings.Split(body, "\n")

	assert.Equal(t, "Ceph cluster is healthy, no OSD reboot required", lines[0])
	assert.Contains(t, body, "\n client io 12 kB/s wr, 3 op/s\n")
	assert.Contains(t, body, "\n No client io detected\n")
	assert.Contains(t, body, "Host: mon-a (4 cores)")
	assert.Contains(t, body, "Run ID: run-1")
	assert.Less(t, strings.Index(body, "client io 12"), strings.Index(body, "No client io detected"))
}

func TestReportBody_Reboot(t *testing.T) {
	tests := []struct {
		name    string
		restart *Restart
		want    []string
		absent  string
	}{
		{
			name:    "success",
			restart: &Restart{OSD: 6},
			want:    []string{"Successfully restarted OSD: 6"},
			absent:  "Failed",
		},
		{
			name:    "failure",
			restart: &Restart{OSD: 4, Err: errors.New("exit status 1")},
			want:    []string{"Failed to reboot OSD: 4", "Error: exit status 1"},
			absent:  "Successfully",
		},
		{
			name:    "dry run",
			restart: &Restart{OSD: 9, DryRun: true},
			want:    []string{"Dry run, OSD not restarted: 9"},
			absent:  "Successfully",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Report{Kind: KindReboot, WindowSize: 10, ZeroCount: 8, Restart: tt.restart}
			body := r.Body()

			assert.True(t, strings.HasPrefix(body, "Ceph cluster is UNHEALTHY, OSD reboot required\n"))
			assert.Contains(t, body, "Zero client IO in 8 of 10 samples")
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
			assert.NotContains(t, body, tt.absent)
		})
	}
}

func TestReportBody_OtherKinds(t *testing.T) {
	assert.True(t, strings.HasPrefix(Report{Kind: KindIdleConfirmed}.Body(), "No client IO detected\n"))
	assert.Contains(t, Report{Kind: KindIdleUnresolved, Cycles: 5}.Body(), "after 5 sampling cycles")
	assert.Contains(t, Report{Kind: KindSourceUnavailable, Unavailable: 6, WindowSize: 10}.Body(),
		"6 of 10 samples failed or timed out")
}

func TestReportMessage(t *testing.T) {
	msg := Report{Kind: KindIdleConfirmed, Location: "prod-east"}.Message("Ceph Sentinel")
	assert.Equal(t, "INFO NO Client IO - prod-east Ceph Sentinel", msg.Subject)
	assert.NotEmpty(t, msg.Body)
}
