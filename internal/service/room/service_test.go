package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncwave/server/internal/domain"
	"github.com/syncwave/server/internal/registry"
	"github.com/syncwave/server/internal/repository/connection/inmemory"
)

type fakeStreamer struct {
	calls []struct {
		roomId    string
		isPlaying bool
	}
}

func (f *fakeStreamer) PlaybackStateChanged(roomId string, isPlaying bool) {
	f.calls = append(f.calls, struct {
		roomId    string
		isPlaying bool
	}{roomId, isPlaying})
}

func newTestService(t *testing.T) (*service, *registry.Registry, *fakeStreamer) {
	t.Helper()

	reg := registry.New(slog.Default(), 0)
	streamer := &fakeStreamer{}
	svc := NewService(reg, inmemory.NewRepo(), streamer, slog.Default())

	return svc, reg, streamer
}

func TestCreateAndJoinRoom(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	assert.NotEmpty(t, createResp.Room.Id)
	assert.Len(t, createResp.Room.Code, registry.CodeLength)
	assert.Equal(t, "H", createResp.Room.HostId)
	assert.False(t, createResp.Room.IsPlaying)
	assert.Equal(t, 80, createResp.Room.MasterVolume)
	assert.Equal(t, 0, createResp.Room.ConnectedDevices)

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		RoomCode:   createResp.Room.Code,
		DeviceId:   "D1",
		DeviceName: "living room",
		Conn:       &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.Equal(t, "D1", joinResp.JoinedDevice.Id)
	assert.Equal(t, 70, joinResp.JoinedDevice.Volume)
	assert.Equal(t, domain.QualityGood, joinResp.JoinedDevice.Quality)
	assert.Equal(t, createResp.Room.Id, joinResp.RoomInfo.RoomId)
	assert.Nil(t, joinResp.HostConn, "host has no live connection yet")

	snapshot, err := svc.GetRoomById(ctx, createResp.Room.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.ConnectedDevices)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomCode: "ZZZZZZ", DeviceId: "D2", DeviceName: "x"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinNotifiesConnectedHost(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)

	hostConn := &websocket.Conn{}
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{
		RoomCode:   createResp.Room.Code,
		DeviceId:   "H",
		DeviceName: "host phone",
		Conn:       hostConn,
	})
	require.NoError(t, err)

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		RoomCode:   createResp.Room.Code,
		DeviceId:   "D1",
		DeviceName: "speaker",
		Conn:       &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.Same(t, hostConn, joinResp.HostConn)
}

func TestLeaveRoom(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{
		RoomCode:   createResp.Room.Code,
		DeviceId:   "D1",
		DeviceName: "speaker",
		Conn:       &websocket.Conn{},
	})
	require.NoError(t, err)

	_, err = svc.LeaveRoom(ctx, &LeaveRoomParams{RoomId: createResp.Room.Id, DeviceId: "D1"})
	require.NoError(t, err)

	room, ok := reg.ById(createResp.Room.Id)
	require.True(t, ok)
	assert.Equal(t, 0, room.DeviceCount())

	// leaving an already-removed room resolves to a no-op error
	_, err = svc.LeaveRoom(ctx, &LeaveRoomParams{RoomId: "gone", DeviceId: "D1"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestPlaybackAuthority(t *testing.T) {
	svc, reg, streamer := newTestService(t)
	ctx := context.Background()

	start := time.Now()
	svc.now = func() time.Time { return start }

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	room, _ := reg.ById(createResp.Room.Id)

	// a non-host playback event never changes the clock
	_, err = svc.UpdatePlayback(ctx, &UpdatePlaybackParams{
		RoomId:      room.Id,
		SenderId:    "D1",
		IsPlaying:   true,
		TimestampMs: 9999,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, room.IsPlaying())
	assert.Equal(t, int64(0), room.CurrentPositionMs(start))
	assert.Empty(t, streamer.calls)

	// the host event always does
	resp, err := svc.UpdatePlayback(ctx, &UpdatePlaybackParams{
		RoomId:      room.Id,
		SenderId:    "H",
		IsPlaying:   true,
		TimestampMs: 1000,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsPlaying)
	assert.True(t, room.IsPlaying())
	assert.Equal(t, int64(1500), room.CurrentPositionMs(start.Add(500*time.Millisecond)))

	require.Len(t, streamer.calls, 1)
	assert.Equal(t, room.Id, streamer.calls[0].roomId)
	assert.True(t, streamer.calls[0].isPlaying)
}

func TestMasterVolumeAuthorityAndClamping(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	room, _ := reg.ById(createResp.Room.Id)

	_, err = svc.SetMasterVolume(ctx, &SetMasterVolumeParams{RoomId: room.Id, SenderId: "D1", Volume: 10})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 80, room.MasterVolume())

	resp, err := svc.SetMasterVolume(ctx, &SetMasterVolumeParams{RoomId: room.Id, SenderId: "H", Volume: -5})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Volume)

	resp, err = svc.SetMasterVolume(ctx, &SetMasterVolumeParams{RoomId: room.Id, SenderId: "H", Volume: 150})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Volume)
	assert.Equal(t, 100, room.MasterVolume())
}

func TestDeviceVolumeAuthorityMatrix(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	room, _ := reg.ById(createResp.Room.Id)

	targetConn := &websocket.Conn{}
	for _, j := range []JoinRoomParams{
		{RoomCode: createResp.Room.Code, DeviceId: "H", DeviceName: "host", Conn: &websocket.Conn{}},
		{RoomCode: createResp.Room.Code, DeviceId: "D1", DeviceName: "one", Conn: targetConn},
		{RoomCode: createResp.Room.Code, DeviceId: "D2", DeviceName: "two", Conn: &websocket.Conn{}},
	} {
		_, err := svc.JoinRoom(ctx, &j)
		require.NoError(t, err)
	}

	// self may set its own volume, nobody is notified
	resp, err := svc.SetDeviceVolume(ctx, &SetDeviceVolumeParams{
		RoomId: room.Id, SenderId: "D1", TargetDeviceId: "D1", Volume: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, resp.Volume)
	assert.Nil(t, resp.TargetConn)

	// a device acting on another non-host device is dropped
	_, err = svc.SetDeviceVolume(ctx, &SetDeviceVolumeParams{
		RoomId: room.Id, SenderId: "D2", TargetDeviceId: "D1", Volume: 99,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	d, _ := room.Device("D1")
	assert.Equal(t, 30, d.Volume)

	// the host may set anyone's, and the target is told
	resp, err = svc.SetDeviceVolume(ctx, &SetDeviceVolumeParams{
		RoomId: room.Id, SenderId: "H", TargetDeviceId: "D1", Volume: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Volume)
	assert.Same(t, targetConn, resp.TargetConn)

	_, err = svc.SetDeviceVolume(ctx, &SetDeviceVolumeParams{
		RoomId: room.Id, SenderId: "H", TargetDeviceId: "nope", Volume: 10,
	})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestSetAudioSourceAuthority(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	room, _ := reg.ById(createResp.Room.Id)

	_, err = svc.SetAudioSource(ctx, &SetAudioSourceParams{
		RoomId: room.Id, SenderId: "D1", SourceType: domain.SourceTypeFile,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Nil(t, room.AudioSource())

	resp, err := svc.SetAudioSource(ctx, &SetAudioSourceParams{
		RoomId:     room.Id,
		SenderId:   "H",
		SourceType: domain.SourceTypeFile,
		SourceId:   "track-9",
		SourceUrl:  "https://cdn.example.com/track-9.ogg",
		DurationMs: 180000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceTypeFile, resp.Source.Type)

	src := room.AudioSource()
	require.NotNil(t, src)
	assert.Equal(t, "track-9", src.SourceId)
}

func TestLatencyAndHeartbeat(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()

	start := time.Now()
	svc.now = func() time.Time { return start }

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	room, _ := reg.ById(createResp.Room.Id)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{
		RoomCode: createResp.Room.Code, DeviceId: "D1", DeviceName: "speaker",
	})
	require.NoError(t, err)

	resp, err := svc.UpdateLatency(ctx, &UpdateLatencyParams{
		RoomId: room.Id, SenderId: "D1", DeviceId: "D1", LatencyMs: 160,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.QualityPoor, resp.Device.Quality)
	assert.Equal(t, 160, resp.Device.LatencyMs)

	// another non-host device may not report for D1
	_, err = svc.UpdateLatency(ctx, &UpdateLatencyParams{
		RoomId: room.Id, SenderId: "D2", DeviceId: "D1", LatencyMs: 1,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	svc.now = func() time.Time { return start.Add(5 * time.Second) }
	require.NoError(t, svc.Heartbeat(ctx, &HeartbeatParams{RoomId: room.Id, SenderId: "D1", DeviceId: "D1"}))

	d, _ := room.Device("D1")
	assert.Equal(t, start.Add(5*time.Second), d.LastHeartbeatAt)

	assert.ErrorIs(t, svc.Heartbeat(ctx, &HeartbeatParams{RoomId: room.Id, SenderId: "nope", DeviceId: "nope"}), ErrDeviceNotFound)
	assert.ErrorIs(t, svc.Heartbeat(ctx, &HeartbeatParams{RoomId: "gone", SenderId: "D1", DeviceId: "D1"}), ErrRoomNotFound)
}

func TestSweepInactiveDevices(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()

	start := time.Now()
	svc.now = func() time.Time { return start }

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H"})
	require.NoError(t, err)
	room, _ := reg.ById(createResp.Room.Id)

	for _, id := range []string{"D1", "D2"} {
		_, err := svc.JoinRoom(ctx, &JoinRoomParams{
			RoomCode: createResp.Room.Code, DeviceId: id, DeviceName: id,
		})
		require.NoError(t, err)
	}

	// D1 keeps heartbeating, D2 goes silent
	svc.now = func() time.Time { return start.Add(domain.HeartbeatTimeout) }
	require.NoError(t, svc.Heartbeat(ctx, &HeartbeatParams{RoomId: room.Id, SenderId: "D1", DeviceId: "D1"}))

	svc.SweepInactiveDevices(ctx)

	d1, _ := room.Device("D1")
	assert.Equal(t, domain.QualityGood, d1.Quality)
	d2, _ := room.Device("D2")
	assert.Equal(t, domain.QualityDisconnected, d2.Quality)
	assert.Equal(t, 2, room.DeviceCount(), "sweep must not remove devices")

	// a later latency report reconnects D2
	_, err = svc.UpdateLatency(ctx, &UpdateLatencyParams{
		RoomId: room.Id, SenderId: "D2", DeviceId: "D2", LatencyMs: 40,
	})
	require.NoError(t, err)
	d2, _ = room.Device("D2")
	assert.Equal(t, domain.QualityGood, d2.Quality)
}

func TestSweepEmptyRooms(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	start := time.Now()

	// D1's last heartbeat is already outside the liveness window
	svc.now = func() time.Time { return start.Add(-domain.HeartbeatTimeout) }
	deadResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H1"})
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomCode: deadResp.Room.Code, DeviceId: "D1", DeviceName: "one"})
	require.NoError(t, err)

	svc.now = func() time.Time { return start }
	liveResp, err := svc.CreateRoom(ctx, &CreateRoomParams{HostId: "H2"})
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomCode: liveResp.Room.Code, DeviceId: "D2", DeviceName: "two"})
	require.NoError(t, err)

	svc.SweepEmptyRooms(ctx)

	_, err = svc.GetRoomById(ctx, deadResp.Room.Id)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.GetRoomById(ctx, liveResp.Room.Id)
	assert.NoError(t, err)
}
