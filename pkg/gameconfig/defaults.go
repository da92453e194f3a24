package gameconfig

import "github.com/crystal-mush/empireolc/pkg/proto"

type definition struct {
	group Group
	key   string
	typ   Type
	desc  string
	value Value
}

// standard is the built-in key set. Values here are the defaults a
// fresh game boots with before its config file is read.
var standard = []definition{
	{GroupApproval, "auto_approve", TypeBool, "automatically approve players when created", Value{}},
	{GroupApproval, "build_approval", TypeBool, "build, upgrade, lay roads, roadsigns", Value{}},
	{GroupApproval, "need_approval_string", TypeString, "error message when an unapproved player uses a command", Value{String: "You need to be approved to do that."}},

	{GroupGame, "mud_name", TypeString, "name of your mud", Value{String: "EmpireMUD"}},
	{GroupGame, "mud_status", TypeString, "one of: Alpha, Closed Beta, Open Beta, Live", Value{String: "Alpha"}},
	{GroupGame, "ok_string", TypeString, "simple Ok message", Value{String: "Ok."}},
	{GroupGame, "huh_string", TypeString, "message for invalid command", Value{String: "Huh?!?"}},
	{GroupGame, "starting_year", TypeInt, "base year", Value{Int: 1}},
	{GroupGame, "hiring_builders", TypeBool, "whether the mud is hiring builders", Value{}},

	{GroupActions, "chop_timer", TypeInt, "weapon damage to chop 1 tree", Value{Int: 24}},
	{GroupActions, "common_depletion", TypeInt, "amount of resources you get from 1 tile", Value{Int: 200}},

	{GroupCity, "min_distance_between_cities", TypeInt, "tiles between city centers", Value{Int: 5}},

	{GroupEmpire, "land_frontier_modifier", TypeDouble, "portion of land that can be far from cities", Value{Double: 0.1}},
	{GroupEmpire, "techs_requiring_same_island", TypeIntArray, "techs that only work if they're on the same island", Value{}},

	{GroupItems, "autostore_time", TypeInt, "minutes items last on the ground", Value{Int: 20}},
	{GroupItems, "scale_points_at_100", TypeDouble, "number of scaling points for a 100-scale item", Value{Double: 20}},

	{GroupMobs, "mob_spawn_interval", TypeInt, "how often mobs spawn/last", Value{Int: 10}},

	{GroupPlayers, "archetype_attribute_total", TypeInt, "total attribute points an archetype's base attributes must add up to", Value{Int: 11}},
	{GroupPlayers, "default_class_abbrev", TypeString, "abbreviation to show for unclassed players", Value{String: "Unc"}},
	{GroupPlayers, "default_class_name", TypeString, "name to show for unclassed players", Value{String: "Unclassed"}},
	{GroupPlayers, "max_player_attribute", TypeInt, "how high primary player attributes go", Value{Int: 10}},

	{GroupSkills, "skill_swap_allowed", TypeBool, "enables skill swap (immortals always can)", Value{Bool: true}},

	{GroupSystem, "max_filesize", TypeInt, "maximum size of bug, typo and idea files in bytes", Value{Int: 50000}},

	{GroupTrade, "trading_post_fee", TypeDouble, "% cut of the sale price", Value{Double: 0.1}},

	{GroupWar, "pvp_timer", TypeInt, "minutes from when you shut off pvp flag, until it's off", Value{Int: 5}},

	{GroupWorld, "generic_facing", TypeBitvector, "terrain buildings may face by default", Value{}},
	{GroupWorld, "arctic_percent", TypeDouble, "what percent of top/bottom of the map is arctic", Value{Double: 2.5}},
}

// Techs labels techs_requiring_same_island.
var Techs = []string{
	"Glassblowing", "Lights", "Locks", "Apiaries", "Seaport", "Workforce",
	"Prominence", "Commerce", "Portals", "Master Portals", "Skilled Labor",
	"Trade Routes", "Exarch Crafts",
}

// BuildOnNames labels generic_facing.
var BuildOnNames = []string{
	"water", "plains", "mountain", "forest", "desert", "river", "jungle",
	"not-player-made", "ocean", "oasis", "crops", "grove", "swamp",
	"any-forest", "open-building",
}

// Standard returns a config with every built-in key defined at its
// default value.
func Standard() *Config {
	c := New()
	for _, d := range standard {
		c.Define(d.group, d.key, d.typ, d.desc)
		c.entries[d.key].Value = d.value
	}
	c.SetNames("techs_requiring_same_island", Techs)
	c.SetNames("generic_facing", BuildOnNames)
	c.entries["generic_facing"].Value.Bitvector = proto.Bit(1) | proto.Bit(3)
	return c
}
