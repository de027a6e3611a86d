package camerabinding

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// --- platform fakes -------------------------------------------------------

type fakeSurface struct {
	res      Resolution
	mu       sync.Mutex
	detached bool
	released int
}

func (s *fakeSurface) Resolution() Resolution { return s.res }

func (s *fakeSurface) DetachFromGraphicsContext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
	return nil
}

func (s *fakeSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
}

func (s *fakeSurface) releaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

type fakeRequest struct{ tmpl Template }

func (r *fakeRequest) Template() Template { return r.tmpl }

type fakeBuilder struct {
	tmpl    Template
	targets []Surface
	af      AutofocusMode
}

func (b *fakeBuilder) AddTarget(s Surface)          { b.targets = append(b.targets, s) }
func (b *fakeBuilder) SetAutofocus(m AutofocusMode) { b.af = m }
func (b *fakeBuilder) Build() Request               { return &fakeRequest{tmpl: b.tmpl} }

type fakeSession struct {
	mu        sync.Mutex
	repeating Request
	repeatErr error
	closes    int
}

func (s *fakeSession) SetRepeating(req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repeatErr != nil {
		return s.repeatErr
	}
	s.repeating = req
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type fakeDevice struct {
	id string

	mu         sync.Mutex
	closes     int
	sessionObs SessionObserver
	sessionQ   Queue
	createErr  error
}

func (d *fakeDevice) ID() string { return d.id }

func (d *fakeDevice) NewRequest(t Template) RequestBuilder {
	return &fakeBuilder{tmpl: t}
}

func (d *fakeDevice) CreateSession(surfaces []Surface, obs SessionObserver, q Queue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return d.createErr
	}
	d.sessionObs = obs
	d.sessionQ = q
	return nil
}

func (d *fakeDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
}

func (d *fakeDevice) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// deliverConfigured hands a session to the stored observer via the queue,
// the way the platform would.
func (d *fakeDevice) deliverConfigured(t *testing.T, sess CaptureSession) {
	t.Helper()
	d.mu.Lock()
	obs, q := d.sessionObs, d.sessionQ
	d.mu.Unlock()
	if obs == nil {
		t.Fatal("no session observer registered")
	}
	if err := q.Submit(func() { obs.OnConfigured(sess) }); err != nil {
		t.Fatalf("submitting OnConfigured: %v", err)
	}
}

func (d *fakeDevice) deliverConfigureFailed(t *testing.T, reason string) {
	t.Helper()
	d.mu.Lock()
	obs, q := d.sessionObs, d.sessionQ
	d.mu.Unlock()
	if obs == nil {
		t.Fatal("no session observer registered")
	}
	if err := q.Submit(func() { obs.OnConfigureFailed(reason) }); err != nil {
		t.Fatalf("submitting OnConfigureFailed: %v", err)
	}
}

type fakeSystem struct {
	descs []CameraDescriptor

	mu        sync.Mutex
	openErr   error
	openedID  string
	deviceObs DeviceObserver
	deviceQ   Queue
	surfaces  []*fakeSurface
}

func (s *fakeSystem) Descriptors() ([]CameraDescriptor, error) {
	return s.descs, nil
}

func (s *fakeSystem) Open(id string, obs DeviceObserver, q Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.openedID = id
	s.deviceObs = obs
	s.deviceQ = q
	return nil
}

func (s *fakeSystem) NewSurface(res Resolution) (Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sf := &fakeSurface{res: res}
	s.surfaces = append(s.surfaces, sf)
	return sf, nil
}

func (s *fakeSystem) deliverOpened(t *testing.T, dev Device) {
	t.Helper()
	s.mu.Lock()
	obs, q := s.deviceObs, s.deviceQ
	s.mu.Unlock()
	if obs == nil {
		t.Fatal("no device observer registered")
	}
	if err := q.Submit(func() { obs.OnOpened(dev) }); err != nil {
		t.Fatalf("submitting OnOpened: %v", err)
	}
}

func (s *fakeSystem) deliverDisconnected(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	obs, q := s.deviceObs, s.deviceQ
	s.mu.Unlock()
	if err := q.Submit(func() { obs.OnDisconnected() }); err != nil {
		t.Fatalf("submitting OnDisconnected: %v", err)
	}
}

func (s *fakeSystem) deliverError(t *testing.T, code int) {
	t.Helper()
	s.mu.Lock()
	obs, q := s.deviceObs, s.deviceQ
	s.mu.Unlock()
	if err := q.Submit(func() { obs.OnError(code) }); err != nil {
		t.Fatalf("submitting OnError: %v", err)
	}
}

// queue returns the worker the last open attempt was issued with.
func (s *fakeSystem) queue() Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceQ
}

type fakePermissions struct {
	mu        sync.Mutex
	granted   bool
	requested []int
}

func (p *fakePermissions) Granted(string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted
}

func (p *fakePermissions) Request(_ []string, code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested = append(p.requested, code)
}

type fakeDisplay struct{ landscape bool }

func (d *fakeDisplay) Landscape() bool { return d.landscape }

// --- renderer fakes -------------------------------------------------------

type feedStream struct {
	mu       sync.Mutex
	destroys int
}

func (s *feedStream) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroys++
}

type feedTexture struct {
	mu       sync.Mutex
	stream   Stream
	destroys int
}

func (t *feedTexture) SetExternalStream(s Stream) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stream = s
	return nil
}

func (t *feedTexture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroys++
}

type feedEngine struct {
	streamErr error
	texErr    error
}

func (e *feedEngine) NewStream(Surface) (Stream, error) {
	if e.streamErr != nil {
		return nil, e.streamErr
	}
	return &feedStream{}, nil
}

func (e *feedEngine) NewExternalTexture(PixelFormat) (Texture, error) {
	if e.texErr != nil {
		return nil, e.texErr
	}
	return &feedTexture{}, nil
}

type feedMaterial struct {
	mu       sync.Mutex
	textures []string
	floats   map[string]float64
}

func (m *feedMaterial) SetTextureParameter(name string, tex Texture, s Sampler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textures = append(m.textures, name)
}

func (m *feedMaterial) SetFloatParameter(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.floats == nil {
		m.floats = map[string]float64{}
	}
	m.floats[name] = value
}

func (m *feedMaterial) texturePublishes(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.textures {
		if t == name {
			n++
		}
	}
	return n
}

func (m *feedMaterial) float(name string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.floats[name]
	return v, ok
}

// --- harness --------------------------------------------------------------

type feedFixture struct {
	feed  *CameraFeed
	sys   *fakeSystem
	perms *fakePermissions
	disp  *fakeDisplay
	eng   *feedEngine
	mat   *feedMaterial
}

func newFeedFixture(t *testing.T, cfg Config) *feedFixture {
	t.Helper()

	sys := &fakeSystem{
		descs: []CameraDescriptor{
			{ID: "front", Facing: FacingFront, Sizes: []Resolution{{Width: 640, Height: 480}}},
			{ID: "back", Facing: FacingBack, Sizes: []Resolution{
				{Width: 1280, Height: 720},
				{Width: 1920, Height: 1080},
			}},
		},
	}
	perms := &fakePermissions{granted: true}
	disp := &fakeDisplay{}
	eng := &feedEngine{}
	mat := &feedMaterial{}

	f, err := New(cfg,
		Platform{Camera: sys, Permissions: perms, Display: disp},
		Renderer{Engine: eng, Material: mat},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return &feedFixture{feed: f, sys: sys, perms: perms, disp: disp, eng: eng, mat: mat}
}

// drain waits until every job submitted before it has executed.
func drain(t *testing.T, q Queue) {
	t.Helper()
	done := make(chan struct{})
	if err := q.Submit(func() { close(done) }); err != nil {
		t.Fatalf("submitting barrier: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain in time")
	}
}

// openToStreaming drives the fixture through the full happy path.
func (fx *feedFixture) openToStreaming(t *testing.T) (*fakeDevice, *fakeSession) {
	t.Helper()

	if err := fx.feed.OpenCamera(); err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	dev := &fakeDevice{id: fx.sys.openedID}
	fx.sys.deliverOpened(t, dev)
	drain(t, fx.sys.queue())

	sess := &fakeSession{}
	dev.deliverConfigured(t, sess)
	drain(t, fx.sys.queue())

	if got := fx.feed.State(); got != StateStreaming {
		t.Fatalf("expected %s, got %s", StateStreaming, got)
	}
	return dev, sess
}

// --- tests ----------------------------------------------------------------

// TestFeed_HappyPath walks resume -> open -> bind -> configure -> streaming
// and checks the published material parameters.
func TestFeed_HappyPath(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	_, sess := fx.openToStreaming(t)

	if fx.sys.openedID != "back" {
		t.Errorf("expected back device, got %q", fx.sys.openedID)
	}

	// Exactly one texture publish and one aspect publish.
	if n := fx.mat.texturePublishes(ParamVideoTexture); n != 1 {
		t.Errorf("expected 1 texture publish, got %d", n)
	}
	aspect, ok := fx.mat.float(ParamAspectRatio)
	if !ok {
		t.Fatal("aspect ratio never published")
	}
	want := 1920.0 / 1080.0
	if aspect != want {
		t.Errorf("expected aspect %v, got %v", want, aspect)
	}

	// The max-area size backs the surface.
	if len(fx.sys.surfaces) != 1 {
		t.Fatalf("expected 1 surface, got %d", len(fx.sys.surfaces))
	}
	sf := fx.sys.surfaces[0]
	if sf.res != (Resolution{Width: 1920, Height: 1080}) {
		t.Errorf("surface allocated at %s", sf.res)
	}
	if !sf.detached {
		t.Error("surface never detached from the default graphics context")
	}

	sess.mu.Lock()
	req := sess.repeating
	sess.mu.Unlock()
	if req == nil {
		t.Fatal("repeating request never set")
	}
	if req.Template() != TemplateRecord {
		t.Errorf("expected record template, got %v", req.Template())
	}

	st := fx.feed.Stats()
	if st.Opens != 1 || st.Binds != 1 {
		t.Errorf("expected opens=1 binds=1, got opens=%d binds=%d", st.Opens, st.Binds)
	}
	if !st.Active {
		t.Error("stats should report active")
	}
	if st.HandleID == "" {
		t.Error("stats should carry the live handle ID while streaming")
	}
}

// TestFeed_LandscapeAspectNegated verifies the sign convention for
// landscape displays.
func TestFeed_LandscapeAspectNegated(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	fx.disp.landscape = true
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	fx.openToStreaming(t)

	aspect, ok := fx.mat.float(ParamAspectRatio)
	if !ok {
		t.Fatal("aspect ratio never published")
	}
	if want := -(1920.0 / 1080.0); aspect != want {
		t.Errorf("expected %v, got %v", want, aspect)
	}
}

// TestFeed_OpenBeforeResume verifies the inactive guard.
func TestFeed_OpenBeforeResume(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OpenCamera(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

// TestFeed_PermissionPending verifies that a missing permission defers the
// open and issues exactly one request with the configured code.
func TestFeed_PermissionPending(t *testing.T) {
	fx := newFeedFixture(t, Config{PermissionCode: 42})
	fx.perms.granted = false
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	if err := fx.feed.OpenCamera(); !errors.Is(err, ErrPermissionPending) {
		t.Fatalf("expected ErrPermissionPending, got %v", err)
	}
	if got := fx.feed.State(); got != StateClosed {
		t.Errorf("state changed on deferral: %s", got)
	}

	fx.perms.mu.Lock()
	reqs := append([]int(nil), fx.perms.requested...)
	fx.perms.mu.Unlock()
	if len(reqs) != 1 || reqs[0] != 42 {
		t.Fatalf("expected one request with code 42, got %v", reqs)
	}

	// The matching result is consumed; a foreign code is not.
	if !fx.feed.OnRequestPermissionsResult(42, []bool{true}) {
		t.Error("matching request code not consumed")
	}
	if fx.feed.OnRequestPermissionsResult(7, []bool{true}) {
		t.Error("foreign request code consumed")
	}

	// After the grant the normal path works.
	fx.perms.granted = true
	fx.openToStreaming(t)
}

// TestFeed_PauseTearsDownInOrder verifies that OnPause quiesces the worker,
// closes the session and device exactly once and releases the GPU chain,
// and that a second OnPause is a no-op.
func TestFeed_PauseTearsDownInOrder(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	dev, sess := fx.openToStreaming(t)

	fx.feed.OnPause()

	if got := fx.feed.State(); got != StateClosed {
		t.Errorf("expected %s after pause, got %s", StateClosed, got)
	}
	if n := sess.closeCount(); n != 1 {
		t.Errorf("session closed %d times", n)
	}
	if n := dev.closeCount(); n != 1 {
		t.Errorf("device closed %d times", n)
	}
	if n := fx.sys.surfaces[0].releaseCount(); n != 1 {
		t.Errorf("surface released %d times", n)
	}
	if st := fx.feed.Stats(); st.Active {
		t.Error("stats still report active after pause")
	} else if st.HandleID != "" {
		t.Errorf("stats carry handle ID %q after pause", st.HandleID)
	}

	// Idempotent.
	fx.feed.OnPause()
	if n := sess.closeCount(); n != 1 {
		t.Errorf("second pause closed the session again (%d)", n)
	}
}

// TestFeed_ResumeAfterPauseReopens verifies the full reactivation cycle
// with fresh worker and session objects.
func TestFeed_ResumeAfterPauseReopens(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	fx.openToStreaming(t)
	fx.feed.OnPause()

	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("second OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()
	fx.openToStreaming(t)

	if st := fx.feed.Stats(); st.Opens != 2 || st.Binds != 2 {
		t.Errorf("expected opens=2 binds=2, got opens=%d binds=%d", st.Opens, st.Binds)
	}
}

// TestFeed_DoubleResume verifies the strict alternation guard.
func TestFeed_DoubleResume(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	if err := fx.feed.OnResume(); err == nil {
		t.Fatal("expected error on double resume")
	}
}

// TestFeed_MidStreamDisconnect verifies recovery to Closed with a full
// teardown and that a fresh open succeeds afterwards.
func TestFeed_MidStreamDisconnect(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	dev, sess := fx.openToStreaming(t)

	fx.sys.deliverDisconnected(t)
	drain(t, fx.sys.queue())

	if got := fx.feed.State(); got != StateClosed {
		t.Fatalf("expected %s after disconnect, got %s", StateClosed, got)
	}
	if n := sess.closeCount(); n != 1 {
		t.Errorf("session closed %d times", n)
	}
	if n := dev.closeCount(); n != 1 {
		t.Errorf("device closed %d times", n)
	}
	if st := fx.feed.Stats(); st.Disconnects != 1 {
		t.Errorf("expected 1 disconnect, got %d", st.Disconnects)
	}

	// The gate was released; a new open proceeds without waiting.
	fx.openToStreaming(t)
}

// TestFeed_DeviceErrorEscalates verifies the fatal escalation hook and the
// teardown on a device error.
func TestFeed_DeviceErrorEscalates(t *testing.T) {
	var mu sync.Mutex
	var fatals []int
	cfg := Config{OnDeviceFatal: func(code int) {
		mu.Lock()
		fatals = append(fatals, code)
		mu.Unlock()
	}}

	fx := newFeedFixture(t, cfg)
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	dev, _ := fx.openToStreaming(t)

	fx.sys.deliverError(t, 3)
	drain(t, fx.sys.queue())

	if got := fx.feed.State(); got != StateClosed {
		t.Fatalf("expected %s after device error, got %s", StateClosed, got)
	}
	if n := dev.closeCount(); n != 1 {
		t.Errorf("device closed %d times", n)
	}
	mu.Lock()
	got := append([]int(nil), fatals...)
	mu.Unlock()
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("expected fatal escalation [3], got %v", got)
	}
	if st := fx.feed.Stats(); st.DeviceErrors != 1 {
		t.Errorf("expected 1 device error, got %d", st.DeviceErrors)
	}
}

// TestFeed_OpenedAfterRelease verifies that a late open callback for a
// released attempt closes the orphan device and leaves the state alone.
func TestFeed_OpenedAfterRelease(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	if err := fx.feed.OpenCamera(); err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	fx.feed.Release()

	dev := &fakeDevice{id: "back"}
	fx.sys.deliverOpened(t, dev)
	drain(t, fx.sys.queue())

	if got := fx.feed.State(); got != StateClosed {
		t.Errorf("stale open moved the state to %s", got)
	}
	if n := dev.closeCount(); n != 1 {
		t.Errorf("orphan device closed %d times", n)
	}
	if n := fx.mat.texturePublishes(ParamVideoTexture); n != 0 {
		t.Errorf("stale open published %d textures", n)
	}
}

// TestFeed_BindFailureEntersError verifies that a renderer-side
// construction failure parks the feed in Error with the device torn down,
// publishes nothing to the material, and recovers via Release plus a
// fresh open.
func TestFeed_BindFailureEntersError(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	fx.eng.streamErr = errors.New("stream allocation refused")
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	if err := fx.feed.OpenCamera(); err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	dev := &fakeDevice{id: "back"}
	fx.sys.deliverOpened(t, dev)
	drain(t, fx.sys.queue())

	if got := fx.feed.State(); got != StateError {
		t.Fatalf("expected %s after bind failure, got %s", StateError, got)
	}
	if n := dev.closeCount(); n != 1 {
		t.Errorf("device closed %d times", n)
	}
	if n := fx.mat.texturePublishes(ParamVideoTexture); n != 0 {
		t.Errorf("failed bind published %d textures", n)
	}
	if _, ok := fx.mat.float(ParamAspectRatio); ok {
		t.Error("failed bind published an aspect ratio")
	}
	if n := fx.sys.surfaces[0].releaseCount(); n != 1 {
		t.Errorf("partial chain surface released %d times", n)
	}
	if st := fx.feed.Stats(); st.Binds != 0 {
		t.Errorf("expected 0 binds, got %d", st.Binds)
	}

	// Error is sticky: a new open needs an explicit Release first.
	if err := fx.feed.OpenCamera(); !errors.Is(err, ErrNotClosed) {
		t.Fatalf("expected ErrNotClosed from Error state, got %v", err)
	}
	fx.feed.Release()
	if got := fx.feed.State(); got != StateClosed {
		t.Fatalf("expected %s after Release, got %s", StateClosed, got)
	}

	fx.eng.streamErr = nil
	fx.openToStreaming(t)
}

// TestFeed_ConfigureFailedCounts verifies that a failed negotiation is
// counted and does not start streaming.
func TestFeed_ConfigureFailedCounts(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	if err := fx.feed.OpenCamera(); err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	dev := &fakeDevice{id: "back"}
	fx.sys.deliverOpened(t, dev)
	drain(t, fx.sys.queue())

	dev.deliverConfigureFailed(t, "stream combination rejected")
	drain(t, fx.sys.queue())

	if got := fx.feed.State(); got == StateStreaming {
		t.Error("streaming after failed configuration")
	}
	if st := fx.feed.Stats(); st.ConfigureFailures != 1 {
		t.Errorf("expected 1 configure failure, got %d", st.ConfigureFailures)
	}
}

// TestFeed_SecondOpenTimesOut verifies gate exclusivity at the feed level:
// while one attempt is in flight, a second caller gets ErrGateTimeout.
func TestFeed_SecondOpenTimesOut(t *testing.T) {
	fx := newFeedFixture(t, Config{GateTimeout: 30 * time.Millisecond})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	if err := fx.feed.OpenCamera(); err != nil {
		t.Fatalf("first OpenCamera failed: %v", err)
	}
	if err := fx.feed.OpenCamera(); !errors.Is(err, ErrGateTimeout) {
		t.Fatalf("expected ErrGateTimeout, got %v", err)
	}
}

// TestFeed_RepeatingFailureClosesSession verifies that a rejected repeating
// request closes the session and records the failure.
func TestFeed_RepeatingFailureClosesSession(t *testing.T) {
	fx := newFeedFixture(t, Config{})
	if err := fx.feed.OnResume(); err != nil {
		t.Fatalf("OnResume failed: %v", err)
	}
	defer fx.feed.OnPause()

	if err := fx.feed.OpenCamera(); err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	dev := &fakeDevice{id: "back"}
	fx.sys.deliverOpened(t, dev)
	drain(t, fx.sys.queue())

	sess := &fakeSession{repeatErr: errors.New("device busy")}
	dev.deliverConfigured(t, sess)
	drain(t, fx.sys.queue())

	if n := sess.closeCount(); n != 1 {
		t.Errorf("failed session closed %d times", n)
	}
	if got := fx.feed.State(); got == StateStreaming {
		t.Error("streaming after rejected repeating request")
	}
	if st := fx.feed.Stats(); st.ConfigureFailures != 1 {
		t.Errorf("expected 1 configure failure, got %d", st.ConfigureFailures)
	}
}

// TestNew_Validation verifies fail-fast construction.
func TestNew_Validation(t *testing.T) {
	sys := &fakeSystem{}
	perms := &fakePermissions{}
	disp := &fakeDisplay{}

	cases := []struct {
		name string
		p    Platform
		r    Renderer
	}{
		{"nil_camera", Platform{Permissions: perms, Display: disp}, Renderer{Engine: &feedEngine{}, Material: &feedMaterial{}}},
		{"nil_permissions", Platform{Camera: sys, Display: disp}, Renderer{Engine: &feedEngine{}, Material: &feedMaterial{}}},
		{"nil_display", Platform{Camera: sys, Permissions: perms}, Renderer{Engine: &feedEngine{}, Material: &feedMaterial{}}},
		{"nil_engine", Platform{Camera: sys, Permissions: perms, Display: disp}, Renderer{Material: &feedMaterial{}}},
		{"nil_material", Platform{Camera: sys, Permissions: perms, Display: disp}, Renderer{Engine: &feedEngine{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(Config{}, tc.p, tc.r); err == nil {
				t.Fatal("expected construction error")
			}
		})
	}

	if _, err := New(Config{GateTimeout: -time.Second}, Platform{Camera: sys, Permissions: perms, Display: disp}, Renderer{Engine: &feedEngine{}, Material: &feedMaterial{}}); err == nil {
		t.Fatal("expected error for negative gate timeout")
	}
}
