package sources

import "civicwatch/models"

func gov(name, base, level, jurisdiction string, freq, rpm int, endpoints map[EntityType]string) Source {
	return Source{
		Name:                name,
		Kind:                KindGovernment,
		BaseURL:             base,
		Level:               level,
		Jurisdiction:        jurisdiction,
		Endpoints:           endpoints,
		CrawlFrequencyHours: freq,
		RateLimitPerMinute:  rpm,
	}
}

func outlet(name, base, politicsPath string) Source {
	return Source{
		Name:                name,
		Kind:                KindNews,
		BaseURL:             base,
		Level:               models.LevelFederal,
		Jurisdiction:        "Canada",
		Endpoints:           map[EntityType]string{EntityNews: politicsPath},
		CrawlFrequencyHours: 1,
		RateLimitPerMinute:  20,
	}
}

func catalog() []Source {
	const (
		fed  = models.LevelFederal
		prov = models.LevelProvincial
		muni = models.LevelMunicipal
	)
	return []Source{
		// federal
		gov("House of Commons", "https://www.ourcommons.ca", fed, "Canada", 6, 30, map[EntityType]string{
			EntityOfficials:  "/Members/en/search",
			EntityVotes:      "/Members/en/votes",
			EntityStatements: "/PublicationSearch/en/?PubType=37",
			EntityCommittees: "/Committees/en/List",
		}),
		gov("LEGISinfo", "https://www.parl.ca", fed, "Canada", 4, 30, map[EntityType]string{
			EntityBills: "/legisinfo/en/bills",
		}),
		gov("Senate of Canada", "https://sencanada.ca", fed, "Canada", 24, 20, map[EntityType]string{
			EntityOfficials:  "/en/senators/",
			EntityCommittees: "/en/committees/",
		}),
		gov("Elections Canada", "https://www.elections.ca", fed, "Canada", 168, 10, map[EntityType]string{
			EntityElections: "/content.aspx?section=ele&dir=pas&document=index&lang=e",
		}),

		// provinces and territories
		gov("Legislative Assembly of Ontario", "https://www.ola.org", prov, "Ontario", 6, 20, map[EntityType]string{
			EntityOfficials: "/en/members/current",
			EntityBills:     "/en/legislative-business/bills/current",
			EntityVotes:     "/en/legislative-business/house-documents/votes-proceedings",
		}),
		gov("Assemblée nationale du Québec", "https://www.assnat.qc.ca", prov, "Quebec", 24, 15, map[EntityType]string{
			EntityOfficials: "/en/deputes/index.html",
			EntityBills:     "/en/travaux-parlementaires/projets-loi/projets-loi-43-1.html",
		}),
		gov("Legislative Assembly of British Columbia", "https://www.leg.bc.ca", prov, "British Columbia", 24, 15, map[EntityType]string{
			EntityOfficials: "/members",
			EntityBills:     "/parliamentary-business/overview/43rd-parliament/1st-session/bills",
		}),
		gov("Legislative Assembly of Alberta", "https://www.assembly.ab.ca", prov, "Alberta", 24, 15, map[EntityType]string{
			EntityOfficials: "/members/members-of-the-legislative-assembly",
			EntityBills:     "/assembly-business/bills/bills-by-legislature",
		}),
		gov("Legislative Assembly of Saskatchewan", "https://www.legassembly.sk.ca", prov, "Saskatchewan", 24, 15, map[EntityType]string{
			EntityOfficials: "/mlas/",
			EntityBills:     "/legislative-business/bills/",
		}),
		gov("Legislative Assembly of Manitoba", "https://www.gov.mb.ca", prov, "Manitoba", 24, 15, map[EntityType]string{
			EntityOfficials: "/legislature/members/mla_list_alphabetical.html",
			EntityBills:     "/legislature/business/bills.html",
		}),
		gov("Nova Scotia Legislature", "https://nslegislature.ca", prov, "Nova Scotia", 24, 15, map[EntityType]string{
			EntityOfficials: "/members/profiles",
			EntityBills:     "/legislative-business/bills-statutes/bills",
		}),
		gov("Legislative Assembly of New Brunswick", "https://www.legnb.ca", prov, "New Brunswick", 24, 15, map[EntityType]string{
			EntityOfficials: "/en/members/current",
			EntityBills:     "/en/legislation/bills",
		}),
		gov("Legislative Assembly of Prince Edward Island", "https://www.assembly.pe.ca", prov, "Prince Edward Island", 48, 10, map[EntityType]string{
			EntityOfficials: "/members",
			EntityBills:     "/legislative-business/house-records/bills",
		}),
		gov("House of Assembly Newfoundland and Labrador", "https://www.assembly.nl.ca", prov, "Newfoundland and Labrador", 48, 10, map[EntityType]string{
			EntityOfficials: "/Members/members.aspx",
			EntityBills:     "/HouseBusiness/Bills/",
		}),
		gov("Yukon Legislative Assembly", "https://yukonassembly.ca", prov, "Yukon", 72, 10, map[EntityType]string{
			EntityOfficials: "/mlas",
			EntityBills:     "/house-business/progress-bills",
		}),
		gov("Legislative Assembly of the Northwest Territories", "https://www.ntassembly.ca", prov, "Northwest Territories", 72, 10, map[EntityType]string{
			EntityOfficials: "/members",
			EntityBills:     "/documents-proceedings/bills",
		}),
		gov("Legislative Assembly of Nunavut", "https://assembly.nu.ca", prov, "Nunavut", 72, 10, map[EntityType]string{
			EntityOfficials: "/members/mla",
			EntityBills:     "/bills-and-legislation",
		}),
		gov("Elections Ontario", "https://www.elections.on.ca", prov, "Ontario", 168, 10, map[EntityType]string{
			EntityElections: "/en/resource-centre/elections-results.html",
		}),

		// municipalities
		gov("City of Toronto", "https://www.toronto.ca", muni, "Toronto", 24, 20, map[EntityType]string{
			EntityOfficials:  "/city-government/council/members-of-council/",
			EntityCommittees: "/city-government/council/council-committee-meetings/",
		}),
		gov("Ville de Montréal", "https://montreal.ca", muni, "Montreal", 24, 15, map[EntityType]string{
			EntityOfficials: "/en/city-government/elected-officials",
		}),
		gov("City of Vancouver", "https://vancouver.ca", muni, "Vancouver", 24, 15, map[EntityType]string{
			EntityOfficials: "/your-government/vancouver-city-council.aspx",
		}),
		gov("City of Calgary", "https://www.calgary.ca", muni, "Calgary", 24, 15, map[EntityType]string{
			EntityOfficials: "/council.html",
		}),
		gov("City of Edmonton", "https://www.edmonton.ca", muni, "Edmonton", 24, 15, map[EntityType]string{
			EntityOfficials: "/city_government/city_organization/city-councillors",
		}),
		gov("City of Ottawa", "https://ottawa.ca", muni, "Ottawa", 24, 15, map[EntityType]string{
			EntityOfficials: "/en/city-hall/mayor-and-city-councillors",
		}),
		gov("City of Winnipeg", "https://www.winnipeg.ca", muni, "Winnipeg", 48, 10, map[EntityType]string{
			EntityOfficials: "/council/",
		}),
		gov("City of Mississauga", "https://www.mississauga.ca", muni, "Mississauga", 48, 10, map[EntityType]string{
			EntityOfficials: "/council/mayor-and-members-of-council/",
		}),
		gov("City of Brampton", "https://www.brampton.ca", muni, "Brampton", 48, 10, map[EntityType]string{
			EntityOfficials: "/EN/City-Hall/meet-mayor-council/Pages/Welcome.aspx",
		}),
		gov("City of Hamilton", "https://www.hamilton.ca", muni, "Hamilton", 48, 10, map[EntityType]string{
			EntityOfficials: "/city-council/council-committee/mayor-councillors",
		}),
		gov("Ville de Québec", "https://www.ville.quebec.qc.ca", muni, "Quebec City", 72, 10, map[EntityType]string{
			EntityOfficials: "/en/citoyens/democratie/elus/",
		}),
		gov("Halifax Regional Municipality", "https://www.halifax.ca", muni, "Halifax", 72, 10, map[EntityType]string{
			EntityOfficials: "/city-hall/regional-council",
		}),

		// news
		outlet("CBC News", "https://www.cbc.ca", "/news/politics"),
		outlet("CTV News", "https://www.ctvnews.ca", "/politics/"),
		outlet("Global News", "https://globalnews.ca", "/politics/"),
		outlet("National Post", "https://nationalpost.com", "/category/news/politics/"),
		outlet("Toronto Star", "https://www.thestar.com", "/politics/"),
		outlet("iPolitics", "https://www.ipolitics.ca", "/news/"),
	}
}
