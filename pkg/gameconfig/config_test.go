package gameconfig

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

func TestTypedGetters(t *testing.T) {
	c := Standard()
	if got := c.Int("archetype_attribute_total"); got != 11 {
		t.Errorf("archetype_attribute_total = %d", got)
	}
	if got := c.String("mud_name"); got != "EmpireMUD" {
		t.Errorf("mud_name = %q", got)
	}
	// Wrong type and unknown keys give the zero value.
	if got := c.Int("mud_name"); got != 0 {
		t.Errorf("Int(mud_name) = %d", got)
	}
	if got := c.Bool("no_such_key"); got {
		t.Error("Bool(no_such_key) = true")
	}
	if got := c.IntOr("no_such_key", 7); got != 7 {
		t.Errorf("IntOr = %d", got)
	}
	if got := c.IntOr("mud_name", 7); got != 7 {
		t.Errorf("IntOr on a string key = %d", got)
	}
}

func smallConfig() *Config {
	c := New()
	c.Define(GroupWorld, "arctic_percent", TypeDouble, "arctic")
	c.Define(GroupGame, "mud_name", TypeString, "name")
	c.Define(GroupGame, "hiring_builders", TypeBool, "hiring")
	c.Define(GroupEmpire, "techs_requiring_same_island", TypeIntArray, "techs")
	c.Define(GroupWorld, "generic_facing", TypeBitvector, "facing")
	return c
}

const legacyFile = `* EmpireMUD Game Configs
mud_name My Test MUD
hiring_builders yes
no_such_key 12
techs_requiring_same_island 3 1 4
*
generic_facing bd
arctic_percent 2.5
$~
`

func TestLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_configs")
	if err := os.WriteFile(path, []byte(legacyFile), 0644); err != nil {
		t.Fatal(err)
	}
	c := smallConfig()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.String("mud_name") != "My Test MUD" || !c.Bool("hiring_builders") || c.Double("arctic_percent") != 2.5 {
		t.Errorf("values = %q %v %v", c.String("mud_name"), c.Bool("hiring_builders"), c.Double("arctic_percent"))
	}
	if got := c.IntArray("techs_requiring_same_island"); !slices.Equal(got, []int{1, 4, 0}) {
		t.Errorf("array = %v", got)
	}
	if got := c.Bitvector("generic_facing"); got != proto.Bit(1)|proto.Bit(3) {
		t.Errorf("bitvector = %v", got)
	}

	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `* EmpireMUD Game Configs
* Keys are defined in code; unknown keys are skipped on load
*
* Game configs
hiring_builders 1
mud_name My Test MUD
*
* Empire configs
techs_requiring_same_island 3 1 4 0
*
* World configs
arctic_percent 2.500000
generic_facing bd
$~
`
	if string(data) != want {
		t.Errorf("saved file:\n%s", data)
	}
}

func TestMissingFileBootsWithDefaults(t *testing.T) {
	c := Standard()
	if err := c.LoadFile(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatal(err)
	}
	if c.Int("pvp_timer") != 5 {
		t.Errorf("pvp_timer = %d", c.Int("pvp_timer"))
	}
}

func TestSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_configs")
	c := Standard()
	if err := c.LoadFile(path); err != nil {
		t.Fatal(err)
	}

	msg, err := c.Set("pvp_timer", "15")
	if err != nil || msg != "pvp_timer: set to 15, from 5." {
		t.Fatalf("Set pvp_timer = %q, %v", msg, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not saved: %v", err)
	}

	steps := []struct{ key, arg, want string }{
		{"hiring_builders", "on", "hiring_builders: set to true, from false."},
		{"techs_requiring_same_island", "add portals", "techs_requiring_same_island: added Portals."},
		{"techs_requiring_same_island", "2", "techs_requiring_same_island: added Lights."},
		{"techs_requiring_same_island", "lights", "techs_requiring_same_island: removed Lights."},
		{"generic_facing", "+river -plains", "generic_facing: now forest river."},
		{"mud_name", "Empire Test", "mud_name: set to 'Empire Test', from 'EmpireMUD'."},
	}
	for _, s := range steps {
		msg, err := c.Set(s.key, s.arg)
		if err != nil {
			t.Fatalf("Set %s %s: %v", s.key, s.arg, err)
		}
		if msg != s.want {
			t.Errorf("Set %s %s = %q", s.key, s.arg, msg)
		}
	}
	if got := c.IntArray("techs_requiring_same_island"); !slices.Equal(got, []int{8}) {
		t.Errorf("techs = %v", got)
	}

	var inputErr *InputError
	for _, bad := range [][2]string{
		{"hiring_builders", "maybe"},
		{"pvp_timer", "soon"},
		{"techs_requiring_same_island", "remove glassblowing"},
		{"techs_requiring_same_island", "add warp drive"},
		{"generic_facing", "+lava"},
		{"mud_name", strings.Repeat("x", MaxString+1)},
	} {
		if _, err := c.Set(bad[0], bad[1]); !errors.As(err, &inputErr) {
			t.Errorf("Set %s %s: expected input error, got %v", bad[0], bad[1], err)
		}
	}
	if _, err := c.Set("no_such_key", "1"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key: %v", err)
	}

	reloaded := Standard()
	if err := reloaded.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if reloaded.Int("pvp_timer") != 15 || reloaded.String("mud_name") != "Empire Test" {
		t.Errorf("reloaded pvp_timer=%d mud_name=%q", reloaded.Int("pvp_timer"), reloaded.String("mud_name"))
	}
}

func TestYAML(t *testing.T) {
	c := Standard()
	c.Set("techs_requiring_same_island", "add seaport")
	c.Set("land_frontier_modifier", "0.25")
	c.Set("generic_facing", "+ocean")

	var buf bytes.Buffer
	if err := c.ExportYAML(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Players:\n  archetype_attribute_total: 11\n") {
		t.Errorf("YAML:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "configs.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	other := Standard()
	if err := other.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(other.IntArray("techs_requiring_same_island"), []int{4}) {
		t.Errorf("techs = %v", other.IntArray("techs_requiring_same_island"))
	}
	if other.Double("land_frontier_modifier") != 0.25 {
		t.Errorf("land_frontier_modifier = %v", other.Double("land_frontier_modifier"))
	}
	if !other.Bitvector("generic_facing").Has(proto.Bit(8)) {
		t.Errorf("generic_facing = %v", other.Bitvector("generic_facing"))
	}
}

func TestShow(t *testing.T) {
	c := Standard()
	out, err := c.Show("war")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "War configs:\n pvp_timer") {
		t.Errorf("group listing = %q", out)
	}
	out, err = c.Show("generic_facing")
	if err != nil || !strings.Contains(out, "plains forest") {
		t.Errorf("entry = %q, %v", out, err)
	}
	if _, err := c.Show("nonsense"); err == nil {
		t.Error("expected an error for an unknown group")
	}
}
