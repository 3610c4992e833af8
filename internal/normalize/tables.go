package normalize

// correction is one row of a hand-maintained repair table. Context is the
// disambiguating field that must match exactly (locality or region).
type correction struct {
	Match   string
	Replace string
	Context string
}

// streetCorrections are matched against the street as a literal substring,
// keyed by locality. First match wins. A street that already contains the
// replacement is left alone.
var streetCorrections = []correction{
	// address mismatch between the facility pages and the spreadsheet
	{"80 29th Street", "100 29th Street", "Brooklyn"},
	{"2250 Laffoon Trl", "2250 Lafoon Trail", "Madisonville"},
	{"560 Gum Springs Road", "560 Gum Spring Road", "Winnfield"},
	{"Vincente Taman Building", "Vicente T Seman Bldg Civic Center", "Susupe, Saipan"},
	{"209 County Road A049", "209 County Road 49", "Estancia"},
	{"50140 US Highway 191 South", "50140 UNITED STATES HIGHWAY 191 SOUTH", "Rock Springs"},
	{"5 Basler Drive", "5 BASLER DR", "Ste. Genevieve"},
	{"3843 Stagg Ave", "3843 Stagg Avenue", "Basile"},
	{"13880 Business Center Drive NW", "13880 Business Center Drive", "Elk River"},
	{"3040 South State Route 100", "3040 SOUTH STATE HIGHWAY 100", "Tiffin"},
	{"1001 San Rio Blvd", "1001 San Rio Boulevard", "Laredo"},
	{"1209 Sunflower Lane", "1209 Sunflower Ln", "Alvarado"},
	{"27991 Buena Vista Blvd.", "27991 BUENA VISTA BOULEVARD", "Los Fresnos"},
	{"175 Pike County Blvd.", "175 PIKE COUNTY BOULEVARD", "Lords Valley"},
	{"500 W. 2nd Street", "301 W. 2nd", "Rolla"},
	{"3405 West Highway 146", "3405 W HWY 146", "LaGrange"},
	{"1623 E J Street, Suite 2", "1623 E. J STREET", "Tacoma"},
	{"1805 W 32nd Street", "1805 W 32ND ST", "Baldwin"},
	{"500 Hilbig Road", "500 HILBIG RD", "Conroe"},
	{"806 Hilbig Road", "806 HILBIG RD", "Conroe"},
	{"425 Golden State Avenue", "425 Golden State Ave", "Bakersfield"},
	{"832 East Texas HWY 44", "832 EAST TEXAS STATE HIGHWAY 44", "Encinal"},
	{"18201 SW 12th Street", "18201 SW 12TH ST", "Miami"},
	{"2190 E Mesquite Avenue", "2190 EAST MESQUITE AVENUE", "Pahrump"},
	{"287 Industrial Drive", "327 INDUSTRIAL DRIVE", "Jonesboro"},
	{"1572 Gateway Road", "1572 GATEWAY", "Calexico"},
	{"1199 N Haseltine Road", "1199 N HASELTINE RD", "Springfield"},
	{"1701 North Washington", "1701 NORTH WASHINGTON ST", "Grand Forks"},
	{"611 Frontage Road", "611 FRONTAGE RD", "McFarland"},
	{"12450 Merritt Road", "12450 MERRITT DR", "Chardon"},
	{"411 S. Broadway Avenue", "411 SOUTH BROADWAY AVENUE", "Albert Lea"},
	{"3424 Hwy 252 E", "3424 HIGHWAY 252 EAST", "Folkston"},
	{"3250 N. Pinal Parkway", "3250 NORTH PINAL PARKWAY", "Florence"},
	{"351 Elliott Street", "351 ELLIOTT ST", "Honolulu"},
	{"1 Success Loop Rd", "1 SUCCESS LOOP DR", "Berlin"},
	{"700 Arch Street", "700 ARCH ST", "Philadelphia"},
	{"1300 Metropolitan", "1300 METROPOLITAN AVE", "Leavenworth"},
	{"601 McDonough Blvd SE", "601 MCDONOUGH BOULEVARD SE", "Atlanta"},
	{"1705 E Hanna Rd", "1705 EAST HANNA RD", "Eloy"},
	{"2255 East 8th North", "2255 E 8TH NORTH", "Mountain Home"},
	{"8915 Montana Avenue", "8915 MONTANA AVE", "El Paso"},
	{"704 E Broadway Street", "702 E BROADWAY ST", "Eden"},
	{"1300 E Hwy 107", "1330 HIGHWAY 107", "La Villa"},
	{"216 W. Center Street", "215 WEST CENTRAL STREET", "Juneau"},
	{"300 El Rancho Way ", "300 EL RANCHO WAY", "Dilley"},
	{"3130 North Oakland Street", "3130 OAKLAND ST", "Aurora"},
	{"03151 Co. Rd. 24.2", "3151 ROAD 2425 ROUTE 1", "Stryker"},
	{"20 Hobo Forks Road", "20 HOBO FORK RD", "Natchez"},
	{"7340 Highway 26 W", "7340 HIGHWAY 26 WEST", "Oberlin"},
	{"1400 E Fourth Ave", "1400 E 4TH AVE", "Anchorage"},
	{"3900 N. Powerline Road", "3900 NORTH POWERLINE ROAD", "Pompano Beach"},
	{"185 E. Michigan Street", "185 EAST MICHIGAN AVENUE", "Battle Creek"},
	{"601 Central Avenue", "601 CENTRAL AVE", "Newport"},
	{"501 E Court Avenue", "501 EAST COURT AVE", "Jeffersonville"},
	{"3200 S. Kings Hwy", "3700 S KINGS HWY", "Cushing"},
	{"301 South Walnut", "301 SOUTH WALNUT STREET", "Cottonwood Falls"},
	{"830 Pine Hill Road", "830 PINEHILL ROAD", "Jena"},
	{"11093 SW Lewis Memorial Dr", "11093 SW LEWIS MEMORIAL DRIVE", "Bowling Green"},
	{"58 Pine Mountain Road", "58 PINE MOUNTAIN RD", "McElhattan"},
	{"Adelanto East 10400 Rancho Road | Adelanto West 10250 Rancho Road", "10250 Rancho Road", "Adelanto"},
	{"4702 East Saunders", "4702 EAST SAUNDERS STREET", "Laredo"},
	{"9998 S. Highway 98", "9998 SOUTH HIGHWAY 83", "Laredo"},
	// phone number embedded in the spreadsheet address
	{"911 PARR BLVD 775 328 3308", "911 E Parr Blvd", "RENO"},
	// bad spreadsheet addresses
	{"33 NE 4 STREET", "33 NE 4th Street", "MIAMI"},
	{"DEPARTMENT OF CORRECTIONS 1618 ASH STREET", "1618 Ash Street", "ERIE"},
	{"203 ASPINAL AVE. PO BOX 3236", "203 Aspinall Avenue", "HAGATNA"},
	{"11866 HASTINGS BRIDGE ROAD P.O. BOX 429", "11866 Hastings Bridge Road", "LOVEJOY"},
	{"300 KANSAS CITY STREET NONE", "307 Saint Joseph St", "RAPID CITY"},
	{"4909 FM 2826", "4909 Farm to Market Road", "ROBSTOWN"},
	{"6920 DIGITAL RD", "11541 Montana Avenue", "EL PASO"},
}

// streetCleanup always runs after the table, in order.
var streetCleanup = []struct{ Match, Replace string }{
	{"'s", ""},
	{".", ""},
	{",", ""},
}

// zipCorrections are keyed by locality. The two Laredo rows chain: a second
// pass over 78401 yields 78046.
var zipCorrections = []correction{
	{"89512", "89506", "Reno"},
	{"82901", "82935", "Rock Springs"},
	{"98421-1615", "98421", "Tacoma"},
	{"89048", "89060", "Pahrump"},
	{"85132", "85232", "Florence"},
	{"78041", "78401", "LAREDO"},
	{"78401", "78046", "LAREDO"},
}

// localityCorrections are keyed by administrative region.
var localityCorrections = []correction{
	{"LaGrange", "La Grange", "KY"},
	{"Leachfield", "LEITCHFIELD", "KY"},
	{"SAIPAN", "Susupe, Saipan", "MP"},
	{"COTTONWOOD FALL", "Cottonwood Falls", "KS"},
	{"Sault Ste. Marie", "SAULT STE MARIE", "MI"},
}

// nameCorrections fix truncated or garbled spreadsheet names, keyed by
// locality. CIMMARRON appears twice; the first row wins. The two LIVINGSTON
// rows chain like the Laredo zips: a second pass turns IAM back into IAH.
var nameCorrections = []correction{
	{"ALEXANDRIA STAGING FACILI", "Alexandria Staging Facility", "ALEXANDRIA"},
	{"ORANGE COUNTY JAIL (NY)", "ORANGE COUNTY JAIL", "GOSHEN"},
	{"NORTH LAKE CORRECTIONAL F", "NORTH LAKE CORRECTIONAL FACILITY", "BALDWIN"},
	{"PHELPS COUNTY JAIL (MO)", "Phelps County Jail", "ROLLA"},
	{"PENNINGTON COUNTY JAIL (SOUTH DAKOTA)", "PENNINGTON COUNTY JAIL", "RAPID CITY"},
	{"CORR. CTR OF NORTHWEST OHIO", "CORRECTIONS CENTER OF NORTHWEST OHIO", "STRYKER"},
	{"FOLKSTON D RAY ICE PROCES", "D. RAY JAMES CORRECTIONAL INSTITUTION", "FOLKSTON"},
	{"COLLIER COUNTY NAPLES JAIL CENTER", "COLLIER COUNTY JAIL", "NAPLES"},
	{"IAH SECURE ADULT DETENTION FACILITY (POLK)", "IAM SECURE ADULT DET. FACILITY", "LIVINGSTON"},
	{"CIMMARRON CORR FACILITY", "CIMMARRON CORRECTIONAL FACILITY", "CUSHING"},
	{"ORANGE COUNTY JAIL (FL)", "ORANGE COUNTY JAIL", "ORLANDO"},
	{"CLARK COUNTY JAIL (IN)", "CLARK COUNTY JAIL", "JEFFERSONVILLE"},
	{"PRINCE EDWARD COUNTY (FARMVILLE)", "ICA - FARMVILLE", "FARMVILLE"},
	{"PHELPS COUNTY JAIL (NE)", "PHELPS COUNTY JAIL", "HOLDREGE"},
	{"WASHINGTON COUNTY JAIL (PURGATORY CORRECTIONAL FAC", "WASHINGTON COUNTY JAIL", "HURRICANE"},
	{"ETOWAH COUNTY JAIL (ALABAMA)", "ETOWAH COUNTY JAIL", "GADSDEN"},
	{"BURLEIGH COUNTY", "BURLEIGH COUNTY JAIL", "BISMARCK"},
	{"NELSON COLEMAN CORRECTION", "NELSON COLEMAN CORRECTIONS CENTER", "KILLONA"},
	{"CIMMARRON CORR FACILITY", "CIMARRON CORRECTIONAL FACILITY", "CUSHING"},
	{"IAM SECURE ADULT DET. FACILITY", "IAH SECURE ADULT DET. FACILITY", "LIVINGSTON"},
}
