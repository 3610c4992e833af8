package sources

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/fetcher"
)

// VeraRow is one facility from the Vera Institute ICE detention trends
// metadata, with the name and city corrections applied.
type VeraRow struct {
	Code         string
	Name         string
	Latitude     float64
	Longitude    float64
	City         string
	State        string
	TypeDetailed string
	TypeGrouped  string
	// Corrected is set when the name or city came from a correction table.
	Corrected bool
}

// VeraLoader downloads the Vera facility CSV.
type VeraLoader struct {
	fetch fetcher.Fetcher
	cfg   Config
}

// NewVeraLoader creates a VeraLoader.
func NewVeraLoader(f fetcher.Fetcher, cfg Config) *VeraLoader {
	return &VeraLoader{fetch: f, cfg: cfg.withDefaults()}
}

// URL is the CSV location, recorded as the source of matched facilities.
func (l *VeraLoader) URL() string { return l.cfg.VeraURL }

// Load returns the distinct usable rows. Rows without a city or state are
// skipped.
func (l *VeraLoader) Load(ctx context.Context) ([]VeraRow, error) {
	body, err := l.fetch.Download(ctx, l.cfg.VeraURL)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: download %s", l.cfg.VeraURL)
	}
	defer body.Close()

	records, err := fetcher.ReadCSVRecords(ctx, body, fetcher.CSVOptions{TrimSpace: true, Dedupe: true})
	if err != nil {
		return nil, eris.Wrap(err, "sources: read vera facilities")
	}
	if len(records) == 0 {
		return nil, eris.New("sources: vera facilities csv is empty")
	}

	rows := make([]VeraRow, 0, len(records))
	skipped, corrected := 0, 0
	for _, rec := range records {
		if rec["city"] == "" || rec["state"] == "" {
			zap.L().Warn("sources: skipping vera row with missing values",
				zap.String("code", rec["detention_facility_code"]),
				zap.String("name", rec["detention_facility_name"]))
			skipped++
			continue
		}
		row := VeraRow{
			Code:         rec["detention_facility_code"],
			Latitude:     coordinate(rec["latitude"]),
			Longitude:    coordinate(rec["longitude"]),
			State:        rec["state"],
			TypeDetailed: rec["type_detailed"],
			TypeGrouped:  rec["type_grouped"],
		}
		var nameFixed, cityFixed bool
		row.Name, nameFixed = VeraName(rec["detention_facility_name"], rec["city"])
		row.City, cityFixed = VeraCity(rec["city"], rec["state"])
		row.Corrected = nameFixed || cityFixed
		if row.Corrected {
			corrected++
		}
		rows = append(rows, row)
	}
	zap.L().Info("sources: loaded vera facilities",
		zap.Int("rows", len(rows)), zap.Int("skipped", skipped), zap.Int("corrected", corrected))
	return rows, nil
}

func coordinate(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// VeraName maps a Vera facility name to the ice.gov spelling. Entries match
// the exact name and city; the first match wins.
func VeraName(name, city string) (string, bool) {
	for _, fix := range veraNameFixes {
		if fix.Match == name && fix.Context == city {
			return fix.Replace, true
		}
	}
	return name, false
}

// VeraCity maps a Vera city to the ice.gov spelling for a state.
func VeraCity(city, state string) (string, bool) {
	for _, fix := range veraCityFixes {
		if fix.Match == city && fix.Context == state {
			return fix.Replace, true
		}
	}
	return city, false
}

type veraFix struct {
	Match   string
	Replace string
	Context string
}

var veraCityFixes = []veraFix{
	{Match: "Saipan", Replace: "Susupe, Saipan", Context: "MP"},
	{Match: "Sault Sainte Marie", Replace: "Sault Ste Marie", Context: "MP"},
}

// veraNameFixes is keyed by (name, city).
var veraNameFixes = []veraFix{
	{Match: "Adams County", Replace: "Adams County Courthouse", Context: "Ritzville"},
	{Match: "Lemon Creek, Juneau,AK", Replace: "Lemon Creek Correctional Facility", Context: "Juneau"},
	{Match: "Dept Of Corrections-Hagatna", Replace: "Department of Corrections Hagatna", Context: "Hagatna"},
	{Match: "Essex Co. Jail, Middleton", Replace: "Essex County Jail", Context: "Middleton"},
	{Match: "Etowah County Jail (AL)", Replace: "Etowah County Jail", Context: "Gadsden"},
	{Match: "Fairfax Co Jail", Replace: "Fairfax County Jail", Context: "Fairfax"},
	{Match: "Ft Lauderdale Behavor Hlth Ctr", Replace: "Fort Lauderdale Behavioral Health Center", Context: "Oakland Park"},
	{Match: "Marion Correctional Inst.", Replace: "Marion Correctional Institution", Context: "Ocala"},
	{Match: "Florida St. Pris.", Replace: "Florida State Prison", Context: "Raiford"},
	{Match: "Dade Correctional Inst", Replace: "Dade Correctional Institution", Context: "Florida City"},
	{Match: "Franklin County Jail, VT", Replace: "Franklin County Jail", Context: "Saint Albans"},
	{Match: "Frederick County Det. Cen", Replace: "Frederick County Detention Center", Context: "Frederick"},
	{Match: "Freeborn County Jail, MN", Replace: "Freeborn Adult Detention Center", Context: "Albert Lea"},
	{Match: "Fremont County Jail, CO", Replace: "Fremont County Jail", Context: "Canon City"},
	{Match: "Fremont County Jail, WY", Replace: "Fremont County Jail", Context: "Lander"},
	{Match: "Grand Forks County Correc", Replace: "Grand Forks County Correctional Facility", Context: "Grand Forks"},
	{Match: "Grand Forks Co. Juvenile", Replace: "Grand Forks County Juvenile Facility", Context: "Grand Forks"},
	{Match: "Haile Det. Center", Replace: "Haile Detention Center", Context: "Caldwell"},
	{Match: "Hampden Co.House Of Corr.", Replace: "Hampden County House of Corrections", Context: "Ludlow"},
	{Match: "Eloy Federal Contract Fac", Replace: "Eloy Federal Contract Facility", Context: "Eloy"},
	{Match: "Henderson County Det. Fac.", Replace: "Henderson County Detention Facility", Context: "Hendersonville"},
	{Match: "Hel District Custody", Replace: "Helena District Custody", Context: "Helena"},
	{Match: "Houston Contract Det.Fac.", Replace: "Houston Contract Detention Facility", Context: "Houston"},
	{Match: "Howard County Det Cntr", Replace: "Howard County Detention Center", Context: "Jessup"},
	{Match: "In Dept. Of Corrections", Replace: "Indiana Department of Corrections", Context: "Indianapolis"},
	{Match: "Beth Israel Hospital, Manhattan", Replace: "Beth Israel Hospital Manhattan", Context: "New York"},
	{Match: "Kent Co.,Grand Rapids,MI", Replace: "Kent County Jail", Context: "Grand Rapids"},
	{Match: "Kern County Jail (Lerdo)", Replace: "Kern County Jail", Context: "Bakersfield"},
	{Match: "Lackawana Cnty Jail, PA", Replace: "Lackawana County Jail", Context: "Scranton"},
	{Match: "Las Colinas Women Det Fac", Replace: "Las Colinas Women's Detention Facility", Context: "Santee"},
	{Match: "Lawrence Co. Jail, SD", Replace: "Lawrence County Jail", Context: "Deadwood"},
	{Match: "Lehigh County Jail, PA", Replace: "Lehigh County Jail", Context: "Allentown"},
	{Match: "Macomb Co.Mt.Clemens,MI.", Replace: "Macomb County Jail", Context: "Mount Clemens"},
	{Match: "Bwater St Hosp Bridgewate", Replace: "Bridgewater State Hospital", Context: "Bridgewater"},
	{Match: "Meade Co. Jail, SD", Replace: "Meade County Jail", Context: "Sturgis"},
	{Match: "Mecklenburg (NC) Co Jail", Replace: "Mecklenburg County Jail", Context: "Charlotte"},
	{Match: "Mountrail Co. Jail, ND", Replace: "Mountrail County Jail", Context: "Stanley"},
	{Match: "Saipan Department Of Corrections", Replace: "SAIPAN DEPARTMENT OF CORRECTIONS (SUSUPE)", Context: "Saipan"},
	{Match: "Sitka City Jail, Sitka AK", Replace: "Sitka City Jail", Context: "Sitka"},
	{Match: "Leavenworth USP", Replace: "Leavenworth US Penitentiary", Context: "Leavenworth"},
	{Match: "Limestone County Jail", Replace: "Limestone County Detention Center", Context: "Groesbeck"},
	{Match: "FCI Berlin", Replace: "Berlin Fed. Corr. Inst.", Context: "Berlin"},
	{Match: "Nassau Co Correc Center", Replace: "Nassau County Correctional Center", Context: "East Meadow"},
	{Match: "Riverside Reg Jail", Replace: "Riverside Regional Jail", Context: "Hopewell"},
	{Match: "T Don Hutto Residential Center", Replace: "T Don Hutto Detention Center", Context: "Taylor"},
	{Match: "Desert View", Replace: "Desert View Annex", Context: "Adelanto"},
	{Match: "Alamance Co. Det. Facility", Replace: "Alamance County Detention Facility", Context: "Graham"},
	{Match: "Hall County Sheriff", Replace: "Hall County Department of Corrections", Context: "Grand Island"},
	{Match: "Hall County Sheriff", Replace: "Hall County Department of Corrections", Context: "Grand Island"},
	{Match: "Dallas County Jail-Lew Sterrett", Replace: "Dallas County Jail - Lew Sterrett Justice Center", Context: "Dallas"},
	{Match: "Hardin Co Jail", Replace: "Hardin County Jail", Context: "Eldora"},
	{Match: "Washington County Jail", Replace: "Washington County Detention Center", Context: "Fayetteville"},
	{Match: "Robert A Deyton Detention Fac", Replace: "Robert A Deyton Detention Facility", Context: "Lovejoy"},
	{Match: "Anchorage Jail", Replace: "Anchorage Correctional Complex", Context: "Anchorage"},
	{Match: "Douglas Co. Wisconsin", Replace: "Douglas County", Context: "Superior"},
	{Match: "Imperial Regional Adult Det Fac", Replace: "Imperial Regional Detention Facility", Context: "Calexico"},
	{Match: "Erie County Jail, PA", Replace: "Erie County Jail", Context: "Erie"},
	{Match: "NW ICE Processing Ctr", Replace: "Northwest ICE Processing Center", Context: "Tacoma"},
	{Match: "Richwood Cor Center", Replace: "Richwood Correctional Center", Context: "Monroe"},
	{Match: "Krome North SPC", Replace: "Krome North Service Processing Center", Context: "Miami"},
	{Match: "Calhoun Co., Battle Cr,MI", Replace: "Calhoun County Correctional Center", Context: "Battle Creek"},
	{Match: "Dodge County Jail, Juneau", Replace: "Dodge County Jail", Context: "Juneau"},
	{Match: "Kandiyohi Co. Jail", Replace: "Kandiyohi County Jail", Context: "Willmar"},
	{Match: "California City Corrections Center", Replace: "California City Correctional Center", Context: "California City"},
	{Match: "Plymouth Co Cor Facilty", Replace: "Plymouth County Correctional Facility", Context: "Plymouth"},
	{Match: "Otero Co Processing Center", Replace: "Otero County Processing Center", Context: "Chaparral"},
	{Match: "Strafford Co Dept Of Corr", Replace: "Strafford County Corrections", Context: "Dover"},
	{Match: "Madison Co. Jail, MS.", Replace: "Madison County Jail", Context: "Canton"},
	{Match: "South Texas Fam Residential Center", Replace: "Dilley Immigration Processing Center", Context: "Dilley"},
	{Match: "Tulsa County Jail", Replace: "Tulsa County Jail (David L. Moss Justice Ctr)", Context: "Tulsa"},
	{Match: "Kenton Co Detention Ctr", Replace: "Kenton County Jail", Context: "Covington"},
	{Match: "Pennington County Jail SD", Replace: "Pennington County Jail", Context: "Rapid City"},
	{Match: "Denver Contract Det. Fac.", Replace: "Denver Contract Detention Facility", Context: "Aurora"},
	{Match: "Corrections Center of NW Ohio", Replace: "Corrections Center of Northwest Ohio", Context: "Stryker"},
	{Match: "Grayson County Detention Center", Replace: "Grayson County Jail", Context: "Leitchfield"},
	{Match: "Chippewa Co, SSM", Replace: "Chippewa County SSM", Context: "Sault Sainte Marie"},
	{Match: "Florence SPC", Replace: "Florence Service Processing Center", Context: "Florence"},
	{Match: "D. Ray James Prison", Replace: "D. Ray James Correctional Institution", Context: "Folkston"},
	{Match: "Collier County Sheriff", Replace: "Collier County Jail", Context: "Naples"},
	{Match: "Oldham County Jail", Replace: "Oldham County Detention Center", Context: "La Grange"},
	{Match: "Salt Lake County Jail", Replace: "Salt Lake County Metro Jail", Context: "Salt Lake City"},
	{Match: "Annex Folkston IPC", Replace: "Folkston Annex IPC", Context: "Folkston"},
	{Match: "Northwest State Correctional Ctr.", Replace: "Northwest State Correctional Center", Context: "Swanton"},
	{Match: "Basile Detention Center", Replace: "South Louisiana ICE Processing Center", Context: "Basile"},
	{Match: "New Hanover Co Det Center", Replace: "New Hanover County Jail", Context: "Castle Hayne"},
	{Match: "Bluebonnet Det Fclty", Replace: "Bluebonnet Detention Facility", Context: "Anson"},
	{Match: "San Luis Regional Det Center", Replace: "San Luis Regional Detention Center", Context: "San Luis"},
	{Match: "Buffalo SPC", Replace: "Buffalo Service Processing Center", Context: "Batavia"},
	{Match: "Laurel County Corrections", Replace: "Laurel County Correctional Center", Context: "London"},
	{Match: "Coastal Bend Det. Facility", Replace: "Coastal Bend Detention Facility", Context: "Robstown"},
	{Match: "Winn Corr Institute", Replace: "Winn Correctional Center", Context: "Winnfield"},
	{Match: "Elizabeth Contract D.F.", Replace: "Elizabeth Contract Detention Faciilty", Context: "Elizabeth"},
	{Match: "Chittenden Reg. Cor. Facility", Replace: "Chittenden Regional Correctional Facility", Context: "South Burlington"},
}
